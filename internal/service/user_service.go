package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Baaaki/heritage-museum/internal/audit"
	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/repository"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"go.uber.org/zap"
)

const maxAuditLimit = 500

type UserService struct {
	userRepo *repository.UserRepository
	audit    AuditLog
}

func NewUserService(userRepo *repository.UserRepository, auditLog AuditLog) *UserService {
	return &UserService{
		userRepo: userRepo,
		audit:    auditLog,
	}
}

// ProfileUpdate carries optional fields; nil means unchanged.
type ProfileUpdate struct {
	Name       *string
	City       *string
	Gender     *string
	PictureURL *string
}

func (s *UserService) GetProfile(ctx context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes the actor's own profile fields only.
func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, in ProfileUpdate) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationErr("name cannot be empty")
		}
		if utf8.RuneCountInString(name) > 100 {
			return nil, validationErr("name must be at most 100 characters")
		}
		fields["name"] = name
	}
	if in.City != nil {
		city := strings.TrimSpace(*in.City)
		if utf8.RuneCountInString(city) > 100 {
			return nil, validationErr("city must be at most 100 characters")
		}
		fields["city"] = city
	}
	if in.Gender != nil {
		gender := models.Gender(strings.ToLower(strings.TrimSpace(*in.Gender)))
		if !gender.Valid() {
			return nil, validationErr("invalid gender")
		}
		fields["gender"] = gender
	}
	if in.PictureURL != nil {
		raw := strings.TrimSpace(*in.PictureURL)
		if raw == "" {
			fields["picture_url"] = nil
		} else {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, validationErr("picture_url must be an http(s) URL")
			}
			fields["picture_url"] = raw
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, actor.ID, fields); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	logger.Log.Info("Profile updated",
		zap.String("user_id", actor.ID.String()),
		zap.Int("fields", len(fields)),
	)
	return s.GetProfile(ctx, actor)
}

func (s *UserService) ListUsers(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if err := authorize(actor, canManageUsers); err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	logger.Log.Debug("Fetched all users",
		zap.Int("count", len(users)),
	)
	return users, nil
}

// ChangeRole sets another user's role. A superadmin cannot change their own
// role, so there is always at least one superadmin left.
func (s *UserService) ChangeRole(ctx context.Context, actor *models.User, rawID, rawRole string) (*models.User, error) {
	if err := authorize(actor, canManageUsers); err != nil {
		return nil, err
	}

	userID, err := parseID(rawID, "user")
	if err != nil {
		return nil, err
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, validationErr("invalid role")
	}
	if userID == actor.ID {
		return nil, validationErr("cannot change your own role")
	}

	changed, err := s.userRepo.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if !changed {
		return nil, ErrUserNotFound
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	record(s.audit, audit.Entry{
		Action:   audit.ActionUserRole,
		ActorID:  actor.ID.String(),
		TargetID: userID.String(),
		Details:  map[string]string{"role": role.String()},
	})

	logger.Log.Info("User role changed",
		zap.String("user_id", userID.String()),
		zap.String("role", role.String()),
		zap.String("by", actor.ID.String()),
	)
	return user, nil
}

// AuditTrail returns recent audit entries, newest first.
func (s *UserService) AuditTrail(ctx context.Context, actor *models.User, limit int) ([]audit.Entry, error) {
	if err := authorize(actor, canManageUsers); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	if s.audit == nil {
		return []audit.Entry{}, nil
	}

	entries, err := s.audit.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}
	return entries, nil
}
