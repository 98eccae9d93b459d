package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-gin-event-ticketing/config"
	"go-gin-event-ticketing/internal/admission"
	"go-gin-event-ticketing/internal/auth"
	"go-gin-event-ticketing/internal/cache"
	"go-gin-event-ticketing/internal/database"
	"go-gin-event-ticketing/internal/database/migrations"
	"go-gin-event-ticketing/internal/handler"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/service"
	"go-gin-event-ticketing/internal/worker"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	log := logger.WithComponent("server")

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Warn("Using default JWT secret, set JWT_SECRET before deploying")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	activities, err := newActivityQueue(ctx, cfg, rdb)
	if err != nil {
		log.Fatal("Failed to initialize activity queue", zap.Error(err))
	}

	// Repositories
	tx := repository.NewTxManager(pool)
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	venueRepo := repository.NewVenueRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	// Services
	availabilityCache := cache.NewRedisAvailabilityCache(rdb, cfg.Cache.AvailabilityTTL)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	policy := admission.NewPolicy(cfg.Admission.MaxTicketsPerUser)

	ticketService := service.NewTicketService(tx, eventRepo, ticketRepo, availabilityCache, activities, policy)
	eventService := service.NewEventService(tx, eventRepo, userRepo, venueRepo, categoryRepo, availabilityCache, activities)
	userService := service.NewUserService(userRepo, tokens, bcrypt.DefaultCost)
	catalogService := service.NewCatalogService(userRepo, venueRepo, categoryRepo)

	availabilityWorker := worker.NewAvailabilityWorker(ticketService, activities)
	if err := availabilityWorker.Start(ctx); err != nil {
		log.Fatal("Failed to start availability worker", zap.Error(err))
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterConfig{
		Tokens:      tokens,
		CORSOrigins: cfg.Server.CORSOrigins,
		Auth:        handler.NewAuthHandler(userService),
		Events:      handler.NewEventHandler(eventService, ticketService),
		Tickets:     handler.NewTicketHandler(ticketService),
		Catalog:     handler.NewCatalogHandler(catalogService),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("queue", cfg.Queue.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	select {
	case <-availabilityWorker.Done():
	case <-shutdownCtx.Done():
		log.Warn("Availability worker did not stop in time")
	}
}

func newActivityQueue(ctx context.Context, cfg *config.Config, rdb *redis.Client) (queue.ActivityQueue, error) {
	if cfg.Queue.Driver == config.QueueDriverRedis {
		return queue.NewRedisStreamActivityQueue(ctx, rdb, cfg.Queue.ConsumerID, nil)
	}
	return queue.NewMemoryActivityQueue(cfg.Queue.BufferSize), nil
}
