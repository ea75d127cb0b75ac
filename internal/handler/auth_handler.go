package handler

import (
	"net/http"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/middleware"
	"apartment_booking/internal/model"
	"apartment_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	log     *logger.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{service: s, log: log}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to register user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		respondError(c, h.log, err, "Failed to login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	token, err := h.service.Refresh(c.Request.Context(), id, c.GetString(middleware.AuthTokenKey))
	if err != nil {
		respondError(c, h.log, err, "Failed to refresh token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", authMW, h.Me)
		authGroup.POST("/refresh", authMW, h.Refresh)
	}
}
