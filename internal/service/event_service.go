package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Baaaki/heritage-museum/internal/audit"
	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/repository"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxInlineImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ImageStore uploads event images; *minio.Client satisfies it.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type EventService struct {
	eventRepo *repository.EventRepository
	audit     AuditLog
	images    ImageStore
}

// NewEventService accepts a nil images store; inline images are then kept as sent.
func NewEventService(eventRepo *repository.EventRepository, auditLog AuditLog, images ImageStore) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		audit:     auditLog,
		images:    images,
	}
}

type CreateEventInput struct {
	Title       string
	Description string
	Date        string
	Time        string
	Location    string
	Image       string
}

// Create stores a new event for review. The status is always pending.
func (s *EventService) Create(ctx context.Context, actor *models.User, in CreateEventInput) (*models.Event, error) {
	start := time.Now()

	if err := authorize(actor, canCreateEvents); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	location := strings.TrimSpace(in.Location)
	switch {
	case title == "":
		return nil, validationErr("title is required")
	case description == "":
		return nil, validationErr("description is required")
	case location == "":
		return nil, validationErr("location is required")
	case utf8.RuneCountInString(title) > 200:
		return nil, validationErr("title must be at most 200 characters")
	case utf8.RuneCountInString(location) > 200:
		return nil, validationErr("location must be at most 200 characters")
	}

	date := strings.TrimSpace(in.Date)
	clock := strings.TrimSpace(in.Time)
	startsAt, err := ParseEventStart(date, clock)
	if err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, strings.TrimSpace(in.Image))
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       title,
		Description: description,
		Location:    location,
		Date:        date,
		Time:        clock,
		StartsAt:    startsAt,
		Image:       image,
		Status:      models.EventStatusPending,
		CreatedBy:   actor.ID,
	}
	if err := s.eventRepo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	record(s.audit, audit.Entry{
		Action:   audit.ActionEventCreate,
		ActorID:  actor.ID.String(),
		TargetID: event.ID.String(),
		Details:  map[string]string{"title": title},
	})

	logger.Log.Info("Event created",
		zap.String("event_id", event.ID.String()),
		zap.String("created_by", actor.ID.String()),
		zap.Duration("duration", time.Since(start)),
	)
	return event, nil
}

// ParseEventStart combines a YYYY-MM-DD date and an HH:MM[:SS] time into a UTC instant.
func ParseEventStart(date, clock string) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, validationErr("date and time are required")
	}

	layouts := []string{"2006-01-02 15:04", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, date+" "+clock, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, validationErr("invalid date or time")
}

// storeImage uploads data:image URLs when an image store is configured.
// Anything else passes through untouched.
func (s *EventService) storeImage(ctx context.Context, image string) (string, error) {
	if s.images == nil || !strings.HasPrefix(image, "data:image/") {
		return image, nil
	}

	header, payload, ok := strings.Cut(strings.TrimPrefix(image, "data:"), ",")
	if !ok {
		return "", validationErr("invalid image data")
	}
	contentType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return "", validationErr("image must be base64 encoded")
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", validationErr("unsupported image type")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxInlineImageBytes {
		return "", validationErr("image too large")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", validationErr("invalid image data")
	}

	key := fmt.Sprintf("events/%s.%s", uuid.NewString(), ext)
	url, err := s.images.Upload(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("upload event image: %w", err)
	}

	logger.Log.Debug("Event image uploaded",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}

func (s *EventService) Approve(ctx context.Context, actor *models.User, rawID string) (*models.Event, error) {
	return s.review(ctx, actor, rawID, models.EventStatusApproved, "")
}

func (s *EventService) Reject(ctx context.Context, actor *models.User, rawID, reason string) (*models.Event, error) {
	return s.review(ctx, actor, rawID, models.EventStatusRejected, strings.TrimSpace(reason))
}

// review moves a pending event to a terminal status. Repeating the same
// decision is a no-op; switching between terminal statuses is refused.
func (s *EventService) review(ctx context.Context, actor *models.User, rawID string, to models.EventStatus, reason string) (*models.Event, error) {
	if err := authorize(actor, canReviewEvents); err != nil {
		return nil, err
	}

	eventID, err := parseID(rawID, "event")
	if err != nil {
		return nil, err
	}

	changed, err := s.eventRepo.TransitionFromPending(ctx, eventID, to, actor.ID, reason)
	if err != nil {
		return nil, fmt.Errorf("transition event: %w", err)
	}

	event, err := s.eventRepo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	noop := false
	if !changed {
		if !event.Status.Terminal() || event.Status != to {
			logger.Log.Warn("Refused event transition",
				zap.String("event_id", eventID.String()),
				zap.String("status", string(event.Status)),
				zap.String("requested", string(to)),
			)
			return nil, ErrInvalidTransition
		}
		noop = true
	}

	action := audit.ActionEventApprove
	if to == models.EventStatusRejected {
		action = audit.ActionEventReject
	}
	details := map[string]string{}
	if reason != "" {
		details["reason"] = reason
	}
	if noop {
		details["noop"] = "true"
	}
	record(s.audit, audit.Entry{
		Action:   action,
		ActorID:  actor.ID.String(),
		TargetID: eventID.String(),
		Details:  details,
	})

	logger.Log.Info("Event reviewed",
		zap.String("event_id", eventID.String()),
		zap.String("status", string(to)),
		zap.Bool("noop", noop),
		zap.String("by", actor.ID.String()),
	)
	return event, nil
}

func (s *EventService) ListPending(ctx context.Context, actor *models.User) ([]models.Event, error) {
	if err := authorize(actor, canReviewEvents); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	return events, nil
}

func (s *EventService) ListApproved(ctx context.Context) ([]models.Event, error) {
	events, err := s.eventRepo.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved events: %w", err)
	}
	return events, nil
}

// ListMine returns the events the actor authored, in any status.
func (s *EventService) ListMine(ctx context.Context, actor *models.User) ([]models.Event, error) {
	if err := authorize(actor, canViewDashboard); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByCreator(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list events by creator: %w", err)
	}
	return events, nil
}

// Get returns an approved event to anyone. Unreviewed or rejected events are
// only visible to their author and to reviewers; others see not found.
func (s *EventService) Get(ctx context.Context, viewer *models.User, rawID string) (*models.Event, error) {
	eventID, err := parseID(rawID, "event")
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	if event.Status == models.EventStatusApproved {
		return event, nil
	}
	if viewer != nil && (viewer.ID == event.CreatedBy || canReviewEvents(viewer.Role)) {
		return event, nil
	}
	return nil, ErrEventNotFound
}
