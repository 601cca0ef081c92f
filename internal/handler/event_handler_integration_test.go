package handler_test

import (
	"net/http"

	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func (s *APIIntegrationTestSuite) createEvent(title string) string {
	w := s.do(http.MethodPost, "/api/events", map[string]string{
		"title":       title,
		"description": "Folk dances in the plaza",
		"date":        "2025-03-01",
		"time":        "14:00",
		"location":    "Town plaza",
	}, s.tokenFor(s.admin))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	event := testutil.DecodeJSON(s.T(), w)["event"].(map[string]interface{})
	return event["id"].(string)
}

func eventIDs(body map[string]interface{}) []string {
	var ids []string
	for _, e := range body["events"].([]interface{}) {
		ids = append(ids, e.(map[string]interface{})["id"].(string))
	}
	return ids
}

func (s *APIIntegrationTestSuite) TestCreateEvent_IgnoresClientStatus() {
	w := s.do(http.MethodPost, "/api/events", map[string]string{
		"title":       "Town Fiesta",
		"description": "Folk dances in the plaza",
		"date":        "2025-03-01",
		"time":        "14:00",
		"location":    "Town plaza",
		"status":      "approved",
	}, s.tokenFor(s.admin))

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	event := testutil.DecodeJSON(s.T(), w)["event"].(map[string]interface{})
	assert.Equal(s.T(), "pending", event["status"])
	assert.Equal(s.T(), "Town Fiesta", event["title"])
	assert.Equal(s.T(), "2025-03-01T14:00:00Z", event["starts_at"])
	assert.NotContains(s.T(), event, "rejection_reason")
}

func (s *APIIntegrationTestSuite) TestCreateEvent_StatusCodes() {
	body := map[string]string{
		"title": "x", "description": "y", "date": "2025-03-01", "time": "14:00", "location": "z",
	}

	w := s.do(http.MethodPost, "/api/events", body, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/events", body, s.tokenFor(s.user))
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	body["date"] = "2025-13-01"
	w = s.do(http.MethodPost, "/api/events", body, s.tokenFor(s.admin))
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), "invalid date or time", testutil.DecodeJSON(s.T(), w)["error"])
}

func (s *APIIntegrationTestSuite) TestApprove_PublishesEvent() {
	id := s.createEvent("Town Fiesta")
	super := s.tokenFor(s.superAdmin)

	w := s.do(http.MethodPatch, "/api/events/"+id+"/approve", nil, super)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Equal(s.T(), "Event approved", testutil.DecodeJSON(s.T(), w)["message"])

	w = s.do(http.MethodGet, "/api/events", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	assert.Contains(s.T(), eventIDs(testutil.DecodeJSON(s.T(), w)), id)

	w = s.do(http.MethodGet, "/api/events/pending", nil, super)
	s.Require().Equal(http.StatusOK, w.Code)
	assert.NotContains(s.T(), eventIDs(testutil.DecodeJSON(s.T(), w)), id)
}

func (s *APIIntegrationTestSuite) TestReject_HidesEvent() {
	id := s.createEvent("Duplicate Fiesta")
	super := s.tokenFor(s.superAdmin)

	w := s.do(http.MethodPatch, "/api/events/"+id+"/reject", map[string]string{"reason": "duplicate"}, super)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/events", nil, "")
	assert.NotContains(s.T(), eventIDs(testutil.DecodeJSON(s.T(), w)), id)

	w = s.do(http.MethodGet, "/api/events/"+id, nil, "")
	assert.Equal(s.T(), http.StatusNotFound, w.Code)

	// rejecting again is a no-op, approving now conflicts
	w = s.do(http.MethodPatch, "/api/events/"+id+"/reject", nil, super)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	w = s.do(http.MethodPatch, "/api/events/"+id+"/approve", nil, super)
	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *APIIntegrationTestSuite) TestReview_IdentifierAndRoleErrors() {
	super := s.tokenFor(s.superAdmin)

	w := s.do(http.MethodPatch, "/api/events/bad-id/approve", nil, super)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/events/"+uuid.NewString()+"/approve", nil, super)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)

	id := s.createEvent("Town Fiesta")
	w = s.do(http.MethodPatch, "/api/events/"+id+"/approve", nil, s.tokenFor(s.admin))
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/events/pending", nil, s.tokenFor(s.admin))
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/events/pending", nil, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *APIIntegrationTestSuite) TestComments_AnonymousPostAndVoting() {
	event := testutil.CreateTestEvent(s.T(), s.testDB.DB, s.admin, "Town Fiesta", models.EventStatusApproved)
	path := "/api/events/" + event.ID.String() + "/comments"

	w := s.do(http.MethodPost, path, map[string]interface{}{"rating": 4, "text": "Great event"}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	comment := testutil.DecodeJSON(s.T(), w)["comment"].(map[string]interface{})
	assert.Equal(s.T(), "Anonymous", comment["user_name"])
	assert.Equal(s.T(), float64(0), comment["likes"])
	assert.Equal(s.T(), float64(0), comment["dislikes"])
	commentID := comment["id"].(string)

	token := s.tokenFor(s.user)
	w = s.do(http.MethodPost, "/api/comments/"+commentID+"/like", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	assert.JSONEq(s.T(), `{"likes":1,"dislikes":0}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/comments/"+commentID+"/dislike", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	assert.JSONEq(s.T(), `{"likes":0,"dislikes":1}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/comments/"+commentID+"/dislike", nil, token)
	assert.JSONEq(s.T(), `{"likes":0,"dislikes":1}`, w.Body.String())

	w = s.do(http.MethodGet, path, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	body := testutil.DecodeJSON(s.T(), w)
	assert.Equal(s.T(), float64(1), body["count"])
	listed := body["comments"].([]interface{})[0].(map[string]interface{})
	assert.Equal(s.T(), []interface{}{s.user.ID.String()}, listed["disliked_by"])
	assert.Equal(s.T(), []interface{}{}, listed["liked_by"])
}

func (s *APIIntegrationTestSuite) TestComments_Errors() {
	event := testutil.CreateTestEvent(s.T(), s.testDB.DB, s.admin, "Town Fiesta", models.EventStatusApproved)
	path := "/api/events/" + event.ID.String() + "/comments"

	w := s.do(http.MethodPost, path, map[string]interface{}{"rating": 9, "text": "hm"}, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path, map[string]interface{}{"rating": 3, "text": "  "}, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/comments/"+uuid.NewString()+"/like", nil, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "not authenticated", testutil.DecodeJSON(s.T(), w)["error"])

	w = s.do(http.MethodPost, "/api/comments/"+uuid.NewString()+"/like", nil, "forged.token.value")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "not authenticated", testutil.DecodeJSON(s.T(), w)["error"])

	w = s.do(http.MethodPost, "/api/comments/"+uuid.NewString()+"/like", nil, s.tokenFor(s.user))
	assert.Equal(s.T(), http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/comments/nope/dislike", nil, s.tokenFor(s.user))
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *APIIntegrationTestSuite) TestSignedInCommentIsAttributed() {
	event := testutil.CreateTestEvent(s.T(), s.testDB.DB, s.admin, "Town Fiesta", models.EventStatusApproved)

	w := s.do(http.MethodPost, "/api/events/"+event.ID.String()+"/comments",
		map[string]interface{}{"rating": 5, "text": "Loved it"}, s.tokenFor(s.user))

	s.Require().Equal(http.StatusCreated, w.Code)
	comment := testutil.DecodeJSON(s.T(), w)["comment"].(map[string]interface{})
	assert.Equal(s.T(), s.user.Name, comment["user_name"])
	assert.Equal(s.T(), s.user.ID.String(), comment["user_id"])
}

func (s *APIIntegrationTestSuite) TestAdminDashboard() {
	s.createEvent("Mine")

	w := s.do(http.MethodGet, "/api/admin/events", nil, s.tokenFor(s.admin))
	s.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(s.T(), float64(1), testutil.DecodeJSON(s.T(), w)["count"])

	w = s.do(http.MethodGet, "/api/admin/events", nil, s.tokenFor(s.user))
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	super := s.tokenFor(s.superAdmin)
	w = s.do(http.MethodGet, "/api/admin/audit?limit=5", nil, super)
	s.Require().Equal(http.StatusOK, w.Code)
	body := testutil.DecodeJSON(s.T(), w)
	assert.Equal(s.T(), float64(1), body["count"])
	entry := body["entries"].([]interface{})[0].(map[string]interface{})
	assert.Equal(s.T(), "event.create", entry["action"])

	w = s.do(http.MethodGet, "/api/admin/audit?limit=zero", nil, super)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/admin/users", nil, super)
	s.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(s.T(), float64(3), testutil.DecodeJSON(s.T(), w)["count"])
	assert.NotContains(s.T(), w.Body.String(), "password")

	w = s.do(http.MethodPatch, "/api/admin/users/"+s.user.ID.String()+"/role",
		map[string]string{"role": "admin"}, super)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Equal(s.T(), "admin", testutil.DecodeJSON(s.T(), w)["user"].(map[string]interface{})["role"])
}

func (s *APIIntegrationTestSuite) TestHealthAndSecurityHeaders() {
	w := s.do(http.MethodGet, "/healthz", nil, "")

	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(s.T(), w.Header().Get("Strict-Transport-Security"))
}
