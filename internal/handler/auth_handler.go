package handler

import (
	"net/http"

	"github.com/Baaaki/heritage-museum/internal/middleware"
	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService   *service.AuthService
	sessions      *service.SessionService
	secureCookies bool
}

func NewAuthHandler(authService *service.AuthService, sessions *service.SessionService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		sessions:      sessions,
		secureCookies: secureCookies,
	}
}

type SignUpRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	City         string `json:"city"`
	Gender       string `json:"gender"`
	CaptchaToken string `json:"captcha_token"`
}

type VerifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// SignUp creates an unverified account and mails a code. No session is opened yet.
// POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	logger.Log.Info("User sign-up attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	user, err := h.authService.SignUp(c.Request.Context(), service.SignUpInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		City:         req.City,
		Gender:       req.Gender,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     c.ClientIP(),
	})
	if err != nil {
		respondError(c, err, "Failed to sign up")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created, check your email for a verification code",
		"user":    user,
	})
}

// POST /api/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	user, token, err := h.authService.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err, "Failed to verify email")
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified",
		"user":    user,
	})
}

// POST /api/auth/verify/resend
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "Failed to send verification code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If the account exists and is unverified, a new code has been sent",
	})
}

// POST /api/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	logger.Log.Info("User sign-in attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	user, token, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Failed to sign in")
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Sign-in successful",
		"user":    user,
	})
}

// SignOut revokes the server-side session and clears the cookie.
// POST /api/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.authService.SignOut(c.Request.Context(), middleware.TokenFromRequest(c)); err != nil {
		respondError(c, err, "Failed to sign out")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookieName, "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Signed out",
	})
}

// POST /api/auth/password/forgot
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "Failed to send reset code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If the account exists, a reset code has been sent",
	})
}

// POST /api/auth/password/reset
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondError(c, err, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated, please sign in",
	})
}

// Session reports whether the request carries a valid session.
// GET /api/session
func (h *AuthHandler) Session(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          sessionUser(user),
	})
}

func sessionUser(u *models.User) gin.H {
	return gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.TokenCookieName,
		token,
		int(h.sessions.Expiry().Seconds()),
		"/",
		"",
		h.secureCookies, // HTTPS-only in production
		true,
	)
}
