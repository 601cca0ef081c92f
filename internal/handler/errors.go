package handler

import (
	"errors"
	"net/http"

	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors to status codes. Anything unrecognised is
// logged in full and answered with the generic failMsg.
func respondError(c *gin.Context, err error, failMsg string) {
	var ve *service.ValidationError
	status := http.StatusInternalServerError
	msg := failMsg

	switch {
	case errors.As(err, &ve):
		status, msg = http.StatusBadRequest, ve.Message
	case errors.Is(err, service.ErrInvalidCode):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, service.ErrUnauthenticated.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "insufficient permissions"
	case errors.Is(err, service.ErrEmailNotVerified):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrEmailAlreadyExists):
		status, msg = http.StatusConflict, err.Error()
	}

	if status == http.StatusInternalServerError {
		logger.Log.Error(failMsg,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	} else {
		logger.Log.Warn("Request rejected",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.String("reason", msg),
		)
	}

	c.JSON(status, gin.H{"error": msg})
}

func invalidBody(c *gin.Context, err error) {
	logger.Log.Warn("Request parsing failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("ip", c.ClientIP()),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request body",
	})
}
