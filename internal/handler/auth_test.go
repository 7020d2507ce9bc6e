package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/task-planner/internal/config"
	"github.com/iliyamo/task-planner/internal/middleware"
	"github.com/iliyamo/task-planner/internal/repository"
	"github.com/iliyamo/task-planner/internal/service"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   60,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
	svc := service.NewAuthService(cfg, db, repository.NewUserRepo(db), repository.NewTokenRepo(db))
	return NewAuthHandler(svc), mock
}

func jsonCtx(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegister_Created(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("ada@example.com", sqlmock.AnyArg(), "Ada", "user").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WithArgs(uint64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register",
		`{"email":"Ada@Example.com","password":"s3cret-pass","name":"Ada"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])
	user := body["user"].(map[string]any)
	require.Equal(t, "ada@example.com", user["email"])
	require.NotContains(t, rec.Body.String(), "password")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Validation(t *testing.T) {
	h, _ := newAuthHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing fields", `{"email":"ada@example.com"}`},
		{"bad email", `{"email":"not-an-email","password":"s3cret-pass","name":"Ada"}`},
		{"short password", `{"email":"ada@example.com","password":"short","name":"Ada"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", tc.body)
			require.NoError(t, h.Register(c))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegister_EmailConflict(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(duplicateKeyErr{})
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register",
		`{"email":"ada@example.com","password":"s3cret-pass","name":"Ada"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "email already exists", decodeBody(t, rec)["error"])
	require.NoError(t, mock.ExpectationsWereMet())
}

type duplicateKeyErr struct{}

func (duplicateKeyErr) Error() string {
	return "Error 1062: Duplicate entry 'ada@example.com' for key 'users.email'"
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=? LIMIT 1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/login",
		`{"email":"nobody@example.com","password":"whatever1"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid credentials", decodeBody(t, rec)["error"])
}

func TestRefresh_MissingAndMalformedToken(t *testing.T) {
	h, _ := newAuthHandler(t)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/refresh", "")
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing bearer token", decodeBody(t, rec)["error"])

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/refresh", "")
	c.Request().Header.Set("Authorization", "Bearer not-a-jwt")
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid refresh token", decodeBody(t, rec)["error"])
}

func TestLogout(t *testing.T) {
	h, mock := newAuthHandler(t)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/logout", "")
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE user_id=?")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/logout", "")
	c.Set(middleware.ContextUserID, uint64(3))
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
