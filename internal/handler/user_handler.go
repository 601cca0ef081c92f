package handler

import (
	"net/http"

	"github.com/Baaaki/heritage-museum/internal/middleware"
	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	City       *string `json:"city"`
	Gender     *string `json:"gender"`
	PictureURL *string `json:"picture_url"`
}

// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), service.ProfileUpdate{
		Name:       req.Name,
		City:       req.City,
		Gender:     req.Gender,
		PictureURL: req.PictureURL,
	})
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
