package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Baaaki/heritage-museum/internal/middleware"
	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// CreateEventRequest has no status field; new events always start pending.
type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Image       string `json:"image"`
}

type RejectEventRequest struct {
	Reason string `json:"reason"`
}

// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), middleware.CurrentUser(c), service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Image:       req.Image,
	})
	if err != nil {
		respondError(c, err, "Failed to create event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// PATCH /api/events/:id/approve
func (h *EventHandler) Approve(c *gin.Context) {
	event, err := h.eventService.Approve(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to approve event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event approved",
		"event":   event,
	})
}

// PATCH /api/events/:id/reject
func (h *EventHandler) Reject(c *gin.Context) {
	var req RejectEventRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		invalidBody(c, err)
		return
	}

	event, err := h.eventService.Reject(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err, "Failed to reject event")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event rejected",
		"event":   event,
	})
}

// GET /api/events/pending
func (h *EventHandler) ListPending(c *gin.Context) {
	events, err := h.eventService.ListPending(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err, "Failed to fetch pending events")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// GET /api/events
func (h *EventHandler) ListApproved(c *gin.Context) {
	events, err := h.eventService.ListApproved(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch events")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.eventService.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}
