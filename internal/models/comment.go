package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const AnonymousName = "Anonymous"

type VoteKind string

const (
	VoteLike    VoteKind = "like"
	VoteDislike VoteKind = "dislike"
)

// Opposite returns the kind a vote switches away from.
func (k VoteKind) Opposite() VoteKind {
	if k == VoteLike {
		return VoteDislike
	}
	return VoteLike
}

type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	UserName  string     `gorm:"type:varchar(100);not null" json:"user_name"`
	Rating    int        `gorm:"not null" json:"rating"`
	Text      string     `gorm:"type:text;not null" json:"text"`
	Likes     int        `gorm:"not null;default:0" json:"likes"`
	Dislikes  int        `gorm:"not null;default:0" json:"dislikes"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`

	// Populated from comment_votes on read
	LikedBy    []uuid.UUID `gorm:"-" json:"liked_by"`
	DislikedBy []uuid.UUID `gorm:"-" json:"disliked_by"`

	Event Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CommentVote is one member of a comment's voter set. The composite key
// allows a single vote per user per comment.
type CommentVote struct {
	CommentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Kind      VoteKind  `gorm:"type:varchar(10);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Comment Comment `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
}

// SetVoters fills LikedBy/DislikedBy from vote rows belonging to this comment.
func (c *Comment) SetVoters(votes []CommentVote) {
	c.LikedBy = []uuid.UUID{}
	c.DislikedBy = []uuid.UUID{}
	for _, v := range votes {
		if v.CommentID != c.ID {
			continue
		}
		switch v.Kind {
		case VoteLike:
			c.LikedBy = append(c.LikedBy, v.UserID)
		case VoteDislike:
			c.DislikedBy = append(c.DislikedBy, v.UserID)
		}
	}
}
