package handler

import (
	"net/http"
	"strconv"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/model"
	"apartment_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves profiles and admin account management
type UserHandler struct {
	users service.UserService
	auth  service.AuthService
	log   *logger.Logger
}

func NewUserHandler(users service.UserService, auth service.AuthService, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, auth: auth, log: log}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	user, err := h.auth.Me(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req model.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), id.UserID, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var filters model.UserFilters
	filters.Role = queryString(c, "role")
	filters.Search = queryString(c, "q")
	if raw := c.Query("blocked"); raw != "" {
		blocked, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid blocked format"})
			return
		}
		filters.IsBlocked = &blocked
	}

	users, err := h.users.ListUsers(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	admin, ok := identity(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	var req model.AdminUserUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.ModerateUser(c.Request.Context(), admin, userID, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// RegisterUserRoutes registers profile and admin user routes
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	users := rg.Group("/users")
	users.Use(authMW)
	{
		users.GET("/me", h.GetMe)
		users.PUT("/me", h.UpdateMe)
		users.GET("", adminMW, h.ListUsers)
		users.PUT("/:id", adminMW, h.UpdateUser)
	}
}
