package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/repository"
	"github.com/Baaaki/heritage-museum/internal/service"
	"github.com/Baaaki/heritage-museum/internal/testutil"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type CommentServiceTestSuite struct {
	suite.Suite
	testDB   *testutil.TestDatabase
	comments *service.CommentService
	admin    *models.User
	alice    *models.User
	bob      *models.User
	event    *models.Event
	ctx      context.Context
}

func (s *CommentServiceTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.ctx = context.Background()
	s.comments = service.NewCommentService(
		repository.NewCommentRepository(s.testDB.DB),
		repository.NewEventRepository(s.testDB.DB),
	)
}

func (s *CommentServiceTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *CommentServiceTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.admin = testutil.CreateAdminUser(s.T(), s.testDB.DB)
	s.alice = testutil.CreateTestUser(s.T(), s.testDB.DB, "Alice", "alice@example.com", models.RoleUser, true)
	s.bob = testutil.CreateTestUser(s.T(), s.testDB.DB, "Bob", "bob@example.com", models.RoleUser, true)
	s.event = testutil.CreateTestEvent(s.T(), s.testDB.DB, s.admin, "Town Fiesta", models.EventStatusApproved)
}

// assertConsistent checks mutual exclusion of voter sets and counter/set agreement.
func (s *CommentServiceTestSuite) assertConsistent(c *models.Comment) {
	assert.Equal(s.T(), len(c.LikedBy), c.Likes, "likes equals |likedBy|")
	assert.Equal(s.T(), len(c.DislikedBy), c.Dislikes, "dislikes equals |dislikedBy|")
	for _, liked := range c.LikedBy {
		assert.NotContains(s.T(), c.DislikedBy, liked, "voter in both sets")
	}
}

func (s *CommentServiceTestSuite) TestPost_Anonymous() {
	comment, err := s.comments.Post(s.ctx, nil, s.event.ID.String(), 4, "  Great event ")

	s.Require().NoError(err)
	assert.Equal(s.T(), models.AnonymousName, comment.UserName)
	assert.Nil(s.T(), comment.UserID)
	assert.Equal(s.T(), "Great event", comment.Text)
	assert.Zero(s.T(), comment.Likes)
	assert.Zero(s.T(), comment.Dislikes)
	assert.NotNil(s.T(), comment.LikedBy)
	assert.NotNil(s.T(), comment.DislikedBy)
}

func (s *CommentServiceTestSuite) TestPost_Attributed() {
	comment, err := s.comments.Post(s.ctx, s.alice, s.event.ID.String(), 5, "Loved it")

	s.Require().NoError(err)
	assert.Equal(s.T(), "Alice", comment.UserName)
	s.Require().NotNil(comment.UserID)
	assert.Equal(s.T(), s.alice.ID, *comment.UserID)
}

func (s *CommentServiceTestSuite) TestPost_Validation() {
	id := s.event.ID.String()
	testCases := []struct {
		name   string
		rating int
		text   string
	}{
		{"rating too low", 0, "ok"},
		{"rating too high", 6, "ok"},
		{"blank text", 3, "   "},
		{"text too long", 3, strings.Repeat("a", 2001)},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.comments.Post(s.ctx, nil, id, tc.rating, tc.text)
			assert.True(s.T(), service.IsValidation(err), "got %v", err)
		})
	}

	_, err := s.comments.Post(s.ctx, nil, "bad-id", 3, "ok")
	assert.True(s.T(), service.IsValidation(err))
}

func (s *CommentServiceTestSuite) TestPost_RequiresApprovedEvent() {
	pending := testutil.CreateTestEvent(s.T(), s.testDB.DB, s.admin, "Pending", models.EventStatusPending)

	_, err := s.comments.Post(s.ctx, nil, pending.ID.String(), 3, "early bird")
	assert.ErrorIs(s.T(), err, service.ErrEventNotFound)

	_, err = s.comments.Post(s.ctx, nil, uuid.NewString(), 3, "nowhere")
	assert.ErrorIs(s.T(), err, service.ErrEventNotFound)
}

func (s *CommentServiceTestSuite) TestList_NewestFirst() {
	first := testutil.CreateTestComment(s.T(), s.testDB.DB, s.event, "first")
	second := testutil.CreateTestComment(s.T(), s.testDB.DB, s.event, "second")
	_, err := s.comments.Like(s.ctx, s.alice, first.ID.String())
	s.Require().NoError(err)

	list, err := s.comments.List(s.ctx, s.event.ID.String())

	s.Require().NoError(err)
	s.Require().Len(list, 2)
	assert.Equal(s.T(), second.ID, list[0].ID)
	assert.Equal(s.T(), first.ID, list[1].ID)
	assert.Equal(s.T(), []uuid.UUID{s.alice.ID}, list[1].LikedBy)
	assert.Empty(s.T(), list[0].LikedBy)
}

func (s *CommentServiceTestSuite) TestLike_RepeatIsIdempotent() {
	comment := testutil.CreateTestComment(s.T(), s.testDB.DB, s.event, "c")

	first, err := s.comments.Like(s.ctx, s.alice, comment.ID.String())
	s.Require().NoError(err)
	second, err := s.comments.Like(s.ctx, s.alice, comment.ID.String())
	s.Require().NoError(err)

	assert.Equal(s.T(), 1, first.Likes)
	assert.Equal(s.T(), 1, second.Likes)
	s.assertConsistent(second)
}

func (s *CommentServiceTestSuite) TestVote_SwitchMovesExactlyOne() {
	comment := testutil.CreateTestComment(s.T(), s.testDB.DB, s.event, "c")

	liked, err := s.comments.Like(s.ctx, s.alice, comment.ID.String())
	s.Require().NoError(err)
	assert.Equal(s.T(), 1, liked.Likes)
	assert.Equal(s.T(), 0, liked.Dislikes)

	disliked, err := s.comments.Dislike(s.ctx, s.alice, comment.ID.String())
	s.Require().NoError(err)
	assert.Equal(s.T(), 0, disliked.Likes)
	assert.Equal(s.T(), 1, disliked.Dislikes)
	assert.Equal(s.T(), []uuid.UUID{s.alice.ID}, disliked.DislikedBy)
	s.assertConsistent(disliked)

	back, err := s.comments.Like(s.ctx, s.alice, comment.ID.String())
	s.Require().NoError(err)
	assert.Equal(s.T(), 1, back.Likes)
	assert.Equal(s.T(), 0, back.Dislikes)
	s.assertConsistent(back)
}

func (s *CommentServiceTestSuite) TestVote_IndependentUsers() {
	comment := testutil.CreateTestComment(s.T(), s.testDB.DB, s.event, "c")

	_, err := s.comments.Like(s.ctx, s.alice, comment.ID.String())
	s.Require().NoError(err)
	got, err := s.comments.Dislike(s.ctx, s.bob, comment.ID.String())
	s.Require().NoError(err)

	assert.Equal(s.T(), 1, got.Likes)
	assert.Equal(s.T(), 1, got.Dislikes)
	s.assertConsistent(got)
}

func (s *CommentServiceTestSuite) TestVote_Errors() {
	_, err := s.comments.Like(s.ctx, nil, uuid.NewString())
	assert.ErrorIs(s.T(), err, service.ErrUnauthenticated)

	_, err = s.comments.Like(s.ctx, s.alice, "nope")
	assert.True(s.T(), service.IsValidation(err))

	_, err = s.comments.Dislike(s.ctx, s.alice, uuid.NewString())
	assert.ErrorIs(s.T(), err, service.ErrCommentNotFound)
}

func (s *CommentServiceTestSuite) TestVote_ConcurrentRequestsKeepCountersConsistent() {
	comment := testutil.CreateTestComment(s.T(), s.testDB.DB, s.event, "c")
	voters := []*models.User{s.alice, s.bob}
	for i := 0; i < 6; i++ {
		voters = append(voters, testutil.CreateTestUser(s.T(), s.testDB.DB,
			"Voter", uuid.NewString()+"@example.com", models.RoleUser, true))
	}

	var wg sync.WaitGroup
	for round := 0; round < 4; round++ {
		for i, v := range voters {
			wg.Add(1)
			go func(v *models.User, like bool) {
				defer wg.Done()
				var err error
				if like {
					_, err = s.comments.Like(s.ctx, v, comment.ID.String())
				} else {
					_, err = s.comments.Dislike(s.ctx, v, comment.ID.String())
				}
				assert.NoError(s.T(), err)
			}(v, (i+round)%2 == 0)
		}
	}
	wg.Wait()

	var stored models.Comment
	s.Require().NoError(s.testDB.DB.First(&stored, "id = ?", comment.ID).Error)
	var votes []models.CommentVote
	s.Require().NoError(s.testDB.DB.Where("comment_id = ?", comment.ID).Find(&votes).Error)
	stored.SetVoters(votes)

	assert.Len(s.T(), votes, len(voters), "one vote row per user")
	assert.Equal(s.T(), len(voters), stored.Likes+stored.Dislikes)
	s.assertConsistent(&stored)
}

func TestCommentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CommentServiceTestSuite))
}
