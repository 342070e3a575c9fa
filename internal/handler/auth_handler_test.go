package handler

import (
	"net/http"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/neuroread/neuroread-api/internal/repository"
	"github.com/neuroread/neuroread-api/internal/service"
)

const testCookieName = "neuroread_session"

func newTestAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := repository.NewUserRepository(sqlx.NewDb(db, "sqlmock"))
	svc := service.NewAuthService(repo, nil, nil, service.AuthConfig{Secret: "test-secret", TTL: time.Hour})
	return NewAuthHandler(svc, testCookieName, false), mock, func() { db.Close() }
}

func userRow(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "role", "profile_pic_link", "mobile", "avatar_index", "created_at", "updated_at"}).
		AddRow("u1", "parent@example.com", string(hash), "Parent A", "parent", "/avatars/avatar-2.png", nil, 2, time.Now(), time.Now())
}

func TestAuthHandlerLoginSetsSessionCookie(t *testing.T) {
	handler, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, email").
		WithArgs("parent@example.com").
		WillReturnRows(userRow(t, "secret123"))

	c, rec := testContext(t)
	c.Request = jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": "parent@example.com", "password": "secret123"})

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"parent@example.com"`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	handler, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, email").
		WithArgs("parent@example.com").
		WillReturnRows(userRow(t, "secret123"))

	c, rec := testContext(t)
	c.Request = jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": "parent@example.com", "password": "wrong"})

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandlerSignup(t *testing.T) {
	handler, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := testContext(t)
	c.Request = jsonRequest(http.MethodPost, "/auth/signup", map[string]string{
		"name":     "Parent A",
		"email":    "parent@example.com",
		"password": "secret123",
		"role":     "parent",
	})

	handler.Signup(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandlerCookiesWithoutSession(t *testing.T) {
	handler, _, cleanup := newTestAuthHandler(t)
	defer cleanup()

	c, rec := testContext(t)
	c.Request = jsonRequest(http.MethodGet, "/auth/cookies", nil)

	handler.Cookies(c)

	// never 401: the frontend probes this on every page load
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user":null`)
}

func TestAuthHandlerCookiesWithSession(t *testing.T) {
	handler, mock, cleanup := newTestAuthHandler(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, email").
		WithArgs("u1").
		WillReturnRows(userRow(t, "secret123"))

	c, rec := testContext(t)
	c.Request = jsonRequest(http.MethodGet, "/auth/cookies", nil)
	withClaims(c, "u1")

	handler.Cookies(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Parent A"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandlerLogoutExpiresCookie(t *testing.T) {
	handler, _, cleanup := newTestAuthHandler(t)
	defer cleanup()

	c, rec := testContext(t)
	c.Request = jsonRequest(http.MethodDelete, "/auth/cookies", nil)

	handler.Logout(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.Contains(t, rec.Body.String(), "logged out")
}
