package middleware

import (
	"context"
	"net/http"
	"strings"

	"apartment_booking/internal/model"
	"apartment_booking/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey     = "authUser"
	AuthRoleKey     = "authRole"
	AuthIdentityKey = "authIdentity"
	AuthTokenKey    = "authToken"
)

type identityCtxKey struct{}

// WithIdentity stores the resolved caller in ctx
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the caller resolved by the auth middleware
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(model.Identity)
	return id, ok
}

// GetIdentity returns the caller of an authenticated request
func GetIdentity(c *gin.Context) (model.Identity, bool) {
	val, exists := c.Get(AuthIdentityKey)
	if !exists {
		return model.Identity{}, false
	}
	id, ok := val.(model.Identity)
	return id, ok
}

// resolve authenticates the request. It returns ok=false with an aborted
// context when a header is present but unusable; present reports whether an
// Authorization header was sent at all.
func resolve(c *gin.Context, jwtUtil *utils.JWTUtil) (present, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return false, false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid authorization header format"})
		return true, false
	}

	tokenString := parts[1]
	claims, err := jwtUtil.ValidateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
		return true, false
	}

	id := claims.Identity()
	c.Set(AuthUserKey, id.UserID)
	c.Set(AuthRoleKey, id.Role)
	c.Set(AuthIdentityKey, id)
	c.Set(AuthTokenKey, tokenString)
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
	return true, true
}

// JWTAuthMiddleware requires a valid bearer token. A missing header is 401,
// a malformed, forged or expired token is 403.
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		present, ok := resolve(c, jwtUtil)
		if !present {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		if !ok {
			return
		}
		c.Next()
	}
}

// OptionalJWTAuthMiddleware lets anonymous requests through but still rejects bad tokens
func OptionalJWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		if present, ok := resolve(c, jwtUtil); present && !ok {
			return
		}
		c.Next()
	}
}
