package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/repository"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCommentLength = 2000

type CommentService struct {
	commentRepo *repository.CommentRepository
	eventRepo   *repository.EventRepository
}

func NewCommentService(commentRepo *repository.CommentRepository, eventRepo *repository.EventRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		eventRepo:   eventRepo,
	}
}

// Post adds a comment to an approved event. author may be nil for anonymous visitors.
func (s *CommentService) Post(ctx context.Context, author *models.User, rawEventID string, rating int, text string) (*models.Comment, error) {
	eventID, err := parseID(rawEventID, "event")
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	switch {
	case rating < 1 || rating > 5:
		return nil, validationErr("rating must be between 1 and 5")
	case text == "":
		return nil, validationErr("text is required")
	case utf8.RuneCountInString(text) > maxCommentLength:
		return nil, validationErr(fmt.Sprintf("text must be at most %d characters", maxCommentLength))
	}

	if err := s.requireApprovedEvent(ctx, eventID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		EventID:  eventID,
		UserName: models.AnonymousName,
		Rating:   rating,
		Text:     text,
	}
	if author != nil {
		id := author.ID
		comment.UserID = &id
		comment.UserName = author.Name
	}

	if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.SetVoters(nil)

	logger.Log.Info("Comment posted",
		zap.String("comment_id", comment.ID.String()),
		zap.String("event_id", eventID.String()),
		zap.Bool("anonymous", author == nil),
	)
	return comment, nil
}

// List returns the comments of an approved event, newest first.
func (s *CommentService) List(ctx context.Context, rawEventID string) ([]models.Comment, error) {
	eventID, err := parseID(rawEventID, "event")
	if err != nil {
		return nil, err
	}
	if err := s.requireApprovedEvent(ctx, eventID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) Like(ctx context.Context, voter *models.User, rawCommentID string) (*models.Comment, error) {
	return s.vote(ctx, voter, rawCommentID, models.VoteLike)
}

func (s *CommentService) Dislike(ctx context.Context, voter *models.User, rawCommentID string) (*models.Comment, error) {
	return s.vote(ctx, voter, rawCommentID, models.VoteDislike)
}

func (s *CommentService) vote(ctx context.Context, voter *models.User, rawCommentID string, kind models.VoteKind) (*models.Comment, error) {
	if voter == nil {
		return nil, ErrUnauthenticated
	}

	commentID, err := parseID(rawCommentID, "comment")
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.ApplyVote(ctx, commentID, voter.ID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("apply %s: %w", kind, err)
	}

	logger.Log.Debug("Comment vote applied",
		zap.String("comment_id", commentID.String()),
		zap.String("user_id", voter.ID.String()),
		zap.String("kind", string(kind)),
		zap.Int("likes", comment.Likes),
		zap.Int("dislikes", comment.Dislikes),
	)
	return comment, nil
}

func (s *CommentService) requireApprovedEvent(ctx context.Context, eventID uuid.UUID) error {
	event, err := s.eventRepo.GetEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event == nil || event.Status != models.EventStatusApproved {
		return ErrEventNotFound
	}
	return nil
}
