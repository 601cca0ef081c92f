package testutil

import (
	"testing"
	"time"

	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/utils"
	"gorm.io/gorm"
)

const DefaultPassword = "Test123456"

// CreateTestUser inserts a user with DefaultPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, name, email string, role models.Role, verified bool) *models.User {
	t.Helper()

	hashed, err := utils.HashPassword(DefaultPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		Verified:     verified,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func CreateRegularUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "Visitor", "visitor@example.com", models.RoleUser, true)
}

func CreateAdminUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "Curator", "curator@example.com", models.RoleAdmin, true)
}

func CreateSuperAdminUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "Director", "director@example.com", models.RoleSuperAdmin, true)
}

// CreateTestEvent inserts an event directly, bypassing the lifecycle rules.
func CreateTestEvent(t *testing.T, db *gorm.DB, creator *models.User, title string, status models.EventStatus) *models.Event {
	t.Helper()

	startsAt := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)
	event := &models.Event{
		Title:       title,
		Description: "An evening at the museum",
		Location:    "Main hall",
		Date:        startsAt.Format("2006-01-02"),
		Time:        startsAt.Format("15:04"),
		StartsAt:    startsAt,
		Status:      status,
		CreatedBy:   creator.ID,
	}
	if err := db.Omit("Creator").Create(event).Error; err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}
	return event
}

// CreateTestComment inserts an anonymous comment with zero votes.
func CreateTestComment(t *testing.T, db *gorm.DB, event *models.Event, text string) *models.Comment {
	t.Helper()

	comment := &models.Comment{
		EventID:  event.ID,
		UserName: models.AnonymousName,
		Rating:   4,
		Text:     text,
	}
	if err := db.Omit("Event").Create(comment).Error; err != nil {
		t.Fatalf("Failed to create test comment: %v", err)
	}
	return comment
}
