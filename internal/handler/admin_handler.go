package handler

import (
	"net/http"
	"strconv"

	"github.com/Baaaki/heritage-museum/internal/middleware"
	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	userService  *service.UserService
	eventService *service.EventService
}

func NewAdminHandler(userService *service.UserService, eventService *service.EventService) *AdminHandler {
	return &AdminHandler{
		userService:  userService,
		eventService: eventService,
	}
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err, "Failed to fetch users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// PATCH /api/admin/users/:id/role
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	actor := middleware.CurrentUser(c)
	logger.Log.Info("Role change requested",
		zap.String("target_user_id", c.Param("id")),
		zap.String("role", req.Role),
	)

	user, err := h.userService.ChangeRole(c.Request.Context(), actor, c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err, "Failed to change role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// MyEvents lists the caller's own submissions in every status.
// GET /api/admin/events
func (h *AdminHandler) MyEvents(c *gin.Context) {
	events, err := h.eventService.ListMine(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err, "Failed to fetch events")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// GET /api/admin/audit?limit=N
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.userService.AuditTrail(c.Request.Context(), middleware.CurrentUser(c), limit)
	if err != nil {
		respondError(c, err, "Failed to read audit trail")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
