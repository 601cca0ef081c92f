package handler_test

import (
	"net/http"

	"github.com/Baaaki/heritage-museum/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func (s *APIIntegrationTestSuite) signUp(email string) {
	w := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name":     "Ayşe",
		"email":    email,
		"password": "Secret123",
		"city":     "Izmir",
		"gender":   "female",
	}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (s *APIIntegrationTestSuite) TestSignUp_DoesNotOpenSession() {
	w := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name":     "Ayşe",
		"email":    "Ayse@Example.com ",
		"password": "Secret123",
	}, "")

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	assert.Nil(s.T(), testutil.TokenCookie(w))

	user := testutil.DecodeJSON(s.T(), w)["user"].(map[string]interface{})
	assert.Equal(s.T(), "ayse@example.com", user["email"])
	assert.Equal(s.T(), false, user["verified"])
	assert.Equal(s.T(), "user", user["role"])
	assert.NotContains(s.T(), user, "password_hash")
	assert.NotEmpty(s.T(), s.mailer.codeFor("ayse@example.com"))
}

func (s *APIIntegrationTestSuite) TestSignUp_Errors() {
	s.signUp("ayse@example.com")

	w := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Other", "email": "AYSE@example.com", "password": "Secret123",
	}, "")
	assert.Equal(s.T(), http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/signup", map[string]string{"email": "x@example.com"}, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), "Invalid request body", testutil.DecodeJSON(s.T(), w)["error"])

	w = s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Short", "email": "short@example.com", "password": "abc",
	}, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *APIIntegrationTestSuite) TestVerify_SetsSessionCookie() {
	s.signUp("ayse@example.com")

	w := s.do(http.MethodPost, "/api/auth/signin",
		map[string]string{"email": "ayse@example.com", "password": "Secret123"}, "")
	assert.Equal(s.T(), http.StatusForbidden, w.Code)
	assert.Nil(s.T(), testutil.TokenCookie(w))

	w = s.do(http.MethodPost, "/api/auth/verify",
		map[string]string{"email": "ayse@example.com", "code": "000000x"}, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/verify",
		map[string]string{"email": "ayse@example.com", "code": s.mailer.codeFor("ayse@example.com")}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	cookie := testutil.TokenCookie(w)
	s.Require().NotNil(cookie)
	assert.True(s.T(), cookie.HttpOnly)
	assert.Equal(s.T(), http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(s.T(), 3600, cookie.MaxAge)

	w = s.do(http.MethodGet, "/api/session", nil, cookie.Value)
	s.Require().Equal(http.StatusOK, w.Code)
	body := testutil.DecodeJSON(s.T(), w)
	assert.Equal(s.T(), true, body["authenticated"])
	assert.Equal(s.T(), "ayse@example.com", body["user"].(map[string]interface{})["email"])
}

func (s *APIIntegrationTestSuite) TestSignIn_WrongPassword() {
	w := s.do(http.MethodPost, "/api/auth/signin",
		map[string]string{"email": s.user.Email, "password": "wrong-password"}, "")

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Nil(s.T(), testutil.TokenCookie(w))
}

func (s *APIIntegrationTestSuite) TestSignOut_RevokesSession() {
	w := s.do(http.MethodPost, "/api/auth/signin",
		map[string]string{"email": s.user.Email, "password": testutil.DefaultPassword}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	token := testutil.TokenCookie(w).Value

	w = s.do(http.MethodGet, "/api/users/me", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/auth/signout", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	cleared := testutil.TokenCookie(w)
	s.Require().NotNil(cleared)
	assert.Empty(s.T(), cleared.Value)
	assert.Negative(s.T(), cleared.MaxAge)

	w = s.do(http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/session", nil, token)
	assert.Equal(s.T(), false, testutil.DecodeJSON(s.T(), w)["authenticated"])
}

func (s *APIIntegrationTestSuite) TestPasswordReset() {
	w := s.do(http.MethodPost, "/api/auth/password/forgot", map[string]string{"email": "nobody@example.com"}, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/auth/password/forgot", map[string]string{"email": s.user.Email}, "")
	s.Require().Equal(http.StatusOK, w.Code)
	code := s.mailer.codeFor(s.user.Email)
	s.Require().NotEmpty(code)

	w = s.do(http.MethodPost, "/api/auth/password/reset", map[string]string{
		"email": s.user.Email, "code": code, "new_password": "BrandNew123",
	}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	// codes are single use
	w = s.do(http.MethodPost, "/api/auth/password/reset", map[string]string{
		"email": s.user.Email, "code": code, "new_password": "Another123",
	}, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/signin",
		map[string]string{"email": s.user.Email, "password": "BrandNew123"}, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *APIIntegrationTestSuite) TestUpdateProfile() {
	token := s.tokenFor(s.user)

	w := s.do(http.MethodPatch, "/api/users/me", map[string]string{"city": "Bursa"}, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	user := testutil.DecodeJSON(s.T(), w)["user"].(map[string]interface{})
	assert.Equal(s.T(), "Bursa", user["city"])
	assert.Equal(s.T(), s.user.Name, user["name"])

	w = s.do(http.MethodPatch, "/api/users/me", map[string]string{"gender": "robot"}, token)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/users/me", map[string]string{"city": "Bursa"}, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}
