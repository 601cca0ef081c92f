package handler

import (
	"net/http"
	"time"

	"github.com/Baaaki/heritage-museum/internal/middleware"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything SetupRouter mounts.
type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Admin    *AdminHandler
	Event    *EventHandler
	Comment  *CommentHandler
	Sessions middleware.SessionResolver
}

type RouterOptions struct {
	AllowedOrigins []string
	Production     bool
}

func SetupRouter(h Handlers, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(opts.Production))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	optional := middleware.OptionalSession(h.Sessions)
	required := middleware.RequireSession(h.Sessions)

	api := router.Group("/api")
	{
		api.GET("/session", optional, h.Auth.Session)

		auth := api.Group("/auth")
		auth.POST("/signup", h.Auth.SignUp)
		auth.POST("/verify", h.Auth.Verify)
		auth.POST("/verify/resend", h.Auth.ResendVerification)
		auth.POST("/signin", h.Auth.SignIn)
		auth.POST("/signout", h.Auth.SignOut)
		auth.POST("/password/forgot", h.Auth.ForgotPassword)
		auth.POST("/password/reset", h.Auth.ResetPassword)

		api.GET("/events", h.Event.ListApproved)
		api.GET("/events/pending", required, h.Event.ListPending)
		api.POST("/events", required, h.Event.Create)
		api.GET("/events/:id", optional, h.Event.Get)
		api.PATCH("/events/:id/approve", required, h.Event.Approve)
		api.PATCH("/events/:id/reject", required, h.Event.Reject)
		api.GET("/events/:id/comments", h.Comment.List)
		api.POST("/events/:id/comments", optional, h.Comment.Post)

		api.POST("/comments/:id/like", required, h.Comment.Like)
		api.POST("/comments/:id/dislike", required, h.Comment.Dislike)

		users := api.Group("/users", required)
		users.GET("/me", h.User.Me)
		users.PATCH("/me", h.User.UpdateMe)

		admin := api.Group("/admin", required)
		admin.GET("/users", h.Admin.ListUsers)
		admin.PATCH("/users/:id/role", h.Admin.ChangeRole)
		admin.GET("/events", h.Admin.MyEvents)
		admin.GET("/audit", h.Admin.AuditTrail)
	}

	return router
}
