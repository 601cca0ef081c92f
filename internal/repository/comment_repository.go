package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCommentNotFound is returned by ApplyVote when the comment row is missing.
var ErrCommentNotFound = errors.New("comment not found")

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// GetCommentByID loads a comment with its voter sets. Returns nil, nil when missing.
func (r *CommentRepository) GetCommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var votes []models.CommentVote
	if err := r.db.WithContext(ctx).Where("comment_id = ?", id).Find(&votes).Error; err != nil {
		return nil, err
	}
	comment.SetVoters(votes)

	return &comment, nil
}

// ListByEvent returns an event's comments newest first, voter sets included.
func (r *CommentRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return comments, nil
	}

	ids := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}

	var votes []models.CommentVote
	if err := r.db.WithContext(ctx).Where("comment_id IN ?", ids).Find(&votes).Error; err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].SetVoters(votes)
	}

	return comments, nil
}

// ApplyVote records a like or dislike by userID inside one transaction.
// The comment row is locked first so concurrent votes on the same comment
// serialize. Counters only move together with vote rows:
//   - same vote again: nothing changes
//   - opposite vote exists: the row switches kind, one unit moves between counters
//   - no vote: a row is inserted and one counter is incremented
//
// The returned comment reflects the committed state.
func (r *CommentRepository) ApplyVote(ctx context.Context, commentID, userID uuid.UUID, kind models.VoteKind) (*models.Comment, error) {
	var result models.Comment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", commentID).
			First(&comment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}

		var existing models.CommentVote
		err = tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Take(&existing).Error
		switch {
		case err == nil && existing.Kind == kind:
			// repeat vote
		case err == nil:
			if err := tx.Model(&models.CommentVote{}).
				Where("comment_id = ? AND user_id = ?", commentID, userID).
				Update("kind", kind).Error; err != nil {
				return err
			}
			if err := shiftCounters(tx, commentID, kind, 1, -1); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.CommentVote{CommentID: commentID, UserID: userID, Kind: kind}
			if err := tx.Omit(clause.Associations).Create(&vote).Error; err != nil {
				return err
			}
			if err := shiftCounters(tx, commentID, kind, 1, 0); err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.Where("id = ?", commentID).First(&result).Error; err != nil {
			return err
		}
		var votes []models.CommentVote
		if err := tx.Where("comment_id = ?", commentID).Find(&votes).Error; err != nil {
			return err
		}
		result.SetVoters(votes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func counterColumn(kind models.VoteKind) string {
	if kind == models.VoteDislike {
		return "dislikes"
	}
	return "likes"
}

// shiftCounters adds delta to the counter for kind and oppositeDelta to the other one.
func shiftCounters(tx *gorm.DB, commentID uuid.UUID, kind models.VoteKind, delta, oppositeDelta int) error {
	own, other := counterColumn(kind), counterColumn(kind.Opposite())
	return tx.Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumns(map[string]interface{}{
			own:   gorm.Expr(own+" + ?", delta),
			other: gorm.Expr(other+" + ?", oppositeDelta),
		}).Error
}
