package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(event).Error
}

// GetEventByID returns nil, nil when the event does not exist.
func (r *EventRepository) GetEventByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListApproved returns the public listing ordered by start time.
func (r *EventRepository) ListApproved(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("status = ?", models.EventStatusApproved).
		Order("starts_at ASC").
		Find(&events).Error
	return events, err
}

// ListPending returns the review queue, newest submission first.
func (r *EventRepository) ListPending(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("status = ?", models.EventStatusPending).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

func (r *EventRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("created_by = ?", creatorID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

// TransitionFromPending moves a pending event to the given status in a single
// conditional UPDATE. It reports false when no pending row with that id
// existed, leaving the caller to work out why.
func (r *EventRepository) TransitionFromPending(
	ctx context.Context,
	id uuid.UUID,
	to models.EventStatus,
	reviewerID uuid.UUID,
	reason string,
) (bool, error) {
	now := time.Now()
	fields := map[string]interface{}{
		"status":      to,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
	}
	if to == models.EventStatusRejected {
		fields["rejection_reason"] = reason
	}

	res := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND status = ?", id, models.EventStatusPending).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
