package handler

import (
	"net/http"

	"github.com/Baaaki/heritage-museum/internal/middleware"
	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

type PostCommentRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// Post accepts anonymous comments; signed-in authors are attributed.
// POST /api/events/:id/comments
func (h *CommentHandler) Post(c *gin.Context) {
	var req PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	comment, err := h.commentService.Post(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Rating, req.Text)
	if err != nil {
		respondError(c, err, "Failed to post comment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GET /api/events/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.commentService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

// POST /api/comments/:id/like
func (h *CommentHandler) Like(c *gin.Context) {
	comment, err := h.commentService.Like(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to like comment")
		return
	}
	respondVotes(c, comment)
}

// POST /api/comments/:id/dislike
func (h *CommentHandler) Dislike(c *gin.Context) {
	comment, err := h.commentService.Dislike(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to dislike comment")
		return
	}
	respondVotes(c, comment)
}

func respondVotes(c *gin.Context, comment *models.Comment) {
	c.JSON(http.StatusOK, gin.H{
		"likes":    comment.Likes,
		"dislikes": comment.Dislikes,
	})
}
