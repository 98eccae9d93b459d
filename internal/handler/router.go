package handler

import (
	"net/http"
	"time"

	"go-gin-event-ticketing/internal/auth"
	"go-gin-event-ticketing/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Tokens      *auth.TokenManager
	CORSOrigins []string

	Auth    *AuthHandler
	Events  *EventHandler
	Tickets *TicketHandler
	Catalog *CatalogHandler
}

// NewRouter 組出完整的 gin engine：公開路由、登入後路由、健康檢查與 /metrics
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), Metrics())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	public := r.Group("/api/v1")
	cfg.Auth.RegisterRoutes(public)

	protected := r.Group("/api/v1")
	protected.Use(AuthMiddleware(cfg.Tokens))
	{
		cfg.Auth.RegisterMeRoute(protected)
		cfg.Events.RegisterRoutes(protected)
		cfg.Tickets.RegisterRoutes(protected)
		cfg.Catalog.RegisterRoutes(protected)
	}

	return r
}
