package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/repository"
	"github.com/Baaaki/heritage-museum/internal/utils"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService issues and resolves session tokens. A token is only valid
// while its server-side session exists and points at the same user.
type SessionService struct {
	sessions *repository.SessionRepository
	userRepo *repository.UserRepository
	secret   string
	expiry   time.Duration
}

func NewSessionService(sessions *repository.SessionRepository, userRepo *repository.UserRepository, secret string, expiry time.Duration) *SessionService {
	return &SessionService{
		sessions: sessions,
		userRepo: userRepo,
		secret:   secret,
		expiry:   expiry,
	}
}

// Expiry is the lifetime of issued tokens, used for the cookie max-age.
func (s *SessionService) Expiry() time.Duration {
	return s.expiry
}

func (s *SessionService) Issue(ctx context.Context, user *models.User) (string, error) {
	sessionID, err := utils.NewSessionID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	if err := s.sessions.CreateSession(ctx, sessionID, user.ID, s.expiry); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	token, err := utils.GenerateToken(user.ID, sessionID, s.secret, s.expiry)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	logger.Log.Debug("Session issued",
		zap.String("user_id", user.ID.String()),
	)
	return token, nil
}

// Resolve maps a token to its user. Every client-side reason for failure
// collapses into ErrUnauthenticated; only store failures come back as other errors.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := utils.ValidateToken(token, s.secret)
	if err != nil {
		logger.Log.Debug("Session token rejected", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	userID, err := s.sessions.GetSessionUser(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if userID != claims.UserID {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	return user, nil
}

// Revoke deletes the server-side session behind token. Invalid tokens are ignored.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	claims, err := utils.ValidateToken(token, s.secret)
	if err != nil {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, claims.UserID, claims.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	logger.Log.Info("Session revoked",
		zap.String("user_id", claims.UserID.String()),
	)
	return nil
}

// RevokeAll signs userID out of every session.
func (s *SessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	n, err := s.sessions.DeleteUserSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}

	logger.Log.Info("All sessions revoked",
		zap.String("user_id", userID.String()),
		zap.Int("count", n),
	)
	return nil
}
