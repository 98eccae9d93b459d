package handler

import (
	"net/http"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service service.UserService
}

func NewAuthHandler(service service.UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes 不需要登入的路由
func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("auth/register", h.Register)
	r.POST("auth/login", h.Login)
}

// RegisterMeRoute 需要登入
func (h *AuthHandler) RegisterMeRoute(r gin.IRouter) {
	r.GET("auth/me", h.Me)
}

type RegisterRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"password_confirm"`
	IsOrganizer     bool    `json:"is_organizer"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	user, err := h.service.Register(c, model.RegisterUserParams{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		IsOrganizer:     req.IsOrganizer,
	})
	if err != nil {
		handleError(c, err, "Register")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.Login(c, req.Username, req.Password)
	if err != nil {
		handleError(c, err, "Login")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.GetByID(c, currentUserID(c))
	if err != nil {
		handleError(c, err, "Me")
		return
	}
	c.JSON(http.StatusOK, user)
}
