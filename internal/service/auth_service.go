package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Baaaki/heritage-museum/internal/captcha"
	"github.com/Baaaki/heritage-museum/internal/mail"
	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/repository"
	"github.com/Baaaki/heritage-museum/internal/utils"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type AuthService struct {
	userRepo *repository.UserRepository
	codes    *repository.CodeRepository
	sessions *SessionService
	mailer   mail.Sender
	captcha  captcha.Verifier
	codeTTL  time.Duration
}

func NewAuthService(
	userRepo *repository.UserRepository,
	codes *repository.CodeRepository,
	sessions *SessionService,
	mailer mail.Sender,
	verifier captcha.Verifier,
	codeTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		codes:    codes,
		sessions: sessions,
		mailer:   mailer,
		captcha:  verifier,
		codeTTL:  codeTTL,
	}
}

type SignUpInput struct {
	Name         string
	Email        string
	Password     string
	City         string
	Gender       string
	CaptchaToken string
	RemoteIP     string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an unverified user and mails a verification code.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	start := time.Now()
	email := NormalizeEmail(in.Email)

	logger.Log.Debug("Processing sign-up",
		zap.String("email", email),
	)

	if err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
		if errors.Is(err, captcha.ErrCaptchaFailed) {
			return nil, validationErr("captcha verification failed")
		}
		return nil, fmt.Errorf("verify captcha: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	gender := models.Gender(strings.ToLower(strings.TrimSpace(in.Gender)))
	if err := validateSignUp(name, email, in.Password, gender); err != nil {
		logger.Log.Warn("Sign-up validation failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		logger.Log.Warn("Email already exists",
			zap.String("email", email),
		)
		return nil, ErrEmailAlreadyExists
	}

	hashStart := time.Now()
	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashDuration := time.Since(hashStart)

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		City:         strings.TrimSpace(in.City),
		Gender:       gender,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The account exists either way; a failed mail can be retried through resend.
	if err := s.issueCode(ctx, repository.CodePurposeVerify, email); err != nil {
		logger.Log.Error("Failed to send verification code",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	logger.Log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("email", email),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, nil
}

// Verify confirms a sign-up code and opens a session.
func (s *AuthService) Verify(ctx context.Context, email, code string) (*models.User, string, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCode
	}

	if err := s.consumeCode(ctx, repository.CodePurposeVerify, email, code); err != nil {
		return nil, "", err
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, "", fmt.Errorf("mark verified: %w", err)
	}
	user.Verified = true

	token, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("Email verified",
		zap.String("user_id", user.ID.String()),
	)
	return user, token, nil
}

// ResendVerification is silent for unknown or already verified emails.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil || user.Verified {
		return nil
	}

	return s.issueCode(ctx, repository.CodePurposeVerify, email)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	start := time.Now()
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		logger.Log.Warn("Sign-in failed: user not found",
			zap.String("email", email),
		)
		return nil, "", ErrInvalidCredentials
	}

	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Sign-in failed: invalid password",
			zap.String("user_id", user.ID.String()),
		)
		return nil, "", ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, "", ErrEmailNotVerified
	}

	token, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("User signed in",
		zap.String("user_id", user.ID.String()),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, token, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

// ForgotPassword mails a reset code. Unknown emails are not revealed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		logger.Log.Debug("Password reset requested for unknown email",
			zap.String("email", email),
		)
		return nil
	}

	return s.issueCode(ctx, repository.CodePurposeReset, email)
}

// ResetPassword sets a new password after checking the reset code and signs
// the user out everywhere. A valid code also proves ownership of the email,
// so the account becomes verified.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ErrInvalidCode
	}

	if err := s.consumeCode(ctx, repository.CodePurposeReset, email, code); err != nil {
		return err
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if !user.Verified {
		if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}
	}
	if err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	logger.Log.Info("Password reset",
		zap.String("user_id", user.ID.String()),
	)
	return nil
}

func (s *AuthService) issueCode(ctx context.Context, purpose repository.CodePurpose, email string) error {
	code, err := utils.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := utils.HashCode(code)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := s.codes.SaveCode(ctx, purpose, email, hash, s.codeTTL); err != nil {
		return fmt.Errorf("save code: %w", err)
	}

	subject := "Your verification code"
	if purpose == repository.CodePurposeReset {
		subject = "Your password reset code"
	}
	body := fmt.Sprintf("Your code is %s. It expires in %s.", code, s.codeTTL)

	return s.mailer.Send(ctx, email, subject, body)
}

// maxCodeAttempts is how many wrong guesses a single code survives.
const maxCodeAttempts = 5

// consumeCode takes the stored code and checks it. A wrong guess puts the code
// back until maxCodeAttempts is reached; after that the code is gone.
func (s *AuthService) consumeCode(ctx context.Context, purpose repository.CodePurpose, email, code string) error {
	stored, ttl, err := s.codes.TakeCode(ctx, purpose, email)
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if stored == "" {
		logger.Log.Warn("No live one-time code",
			zap.String("email", email),
			zap.String("purpose", string(purpose)),
		)
		return ErrInvalidCode
	}

	if utils.CheckCode(stored, strings.TrimSpace(code)) {
		if err := s.codes.ClearAttempts(ctx, purpose, email); err != nil {
			logger.Log.Warn("Failed to clear code attempts", zap.Error(err))
		}
		return nil
	}

	attempts, err := s.codes.RecordFailure(ctx, purpose, email, ttl)
	if err != nil {
		return fmt.Errorf("count code attempt: %w", err)
	}
	logger.Log.Warn("Invalid one-time code",
		zap.String("email", email),
		zap.String("purpose", string(purpose)),
		zap.Int64("attempts", attempts),
	)
	if attempts >= maxCodeAttempts {
		logger.Log.Warn("One-time code discarded after too many attempts",
			zap.String("email", email),
			zap.String("purpose", string(purpose)),
		)
		return ErrInvalidCode
	}
	if err := s.codes.RestoreCode(ctx, purpose, email, stored, ttl); err != nil {
		return fmt.Errorf("restore code: %w", err)
	}
	return ErrInvalidCode
}

func validateSignUp(name, email, password string, gender models.Gender) error {
	if name == "" {
		return validationErr("name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return validationErr("name must be at most 100 characters")
	}

	if !emailRegex.MatchString(email) {
		return validationErr("invalid email format")
	}
	if len(email) > 100 {
		return validationErr("email too long")
	}

	if !gender.Valid() {
		return validationErr("invalid gender")
	}

	return validatePassword(password)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return validationErr("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return validationErr("password too long")
	}
	return nil
}
