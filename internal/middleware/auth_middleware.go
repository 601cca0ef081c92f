package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	TokenCookieName = "token"
	currentUserKey  = "current_user"
)

// SessionResolver is satisfied by *service.SessionService.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// TokenFromRequest reads the session cookie, falling back to a Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(TokenCookieName); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
		return strings.TrimSpace(token)
	}
	return ""
}

// OptionalSession attaches the user when a valid session is present and
// lets anonymous requests through.
func OptionalSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolveInto(c, resolver) {
			c.Next()
		}
	}
}

// RequireSession rejects requests without a valid session with a uniform 401.
func RequireSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveInto(c, resolver) {
			return
		}
		if CurrentUser(c) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": service.ErrUnauthenticated.Error(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// resolveInto returns false when it has already aborted the request.
func resolveInto(c *gin.Context, resolver SessionResolver) bool {
	token := TokenFromRequest(c)
	if token == "" {
		return true
	}

	user, err := resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return true
		}
		logger.Log.Error("Session lookup failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve session",
		})
		c.Abort()
		return false
	}

	c.Set(currentUserKey, user)
	return true
}

// CurrentUser returns the session user or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
