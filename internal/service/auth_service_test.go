package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/task-planner/internal/config"
	"github.com/iliyamo/task-planner/internal/repository"
	"github.com/iliyamo/task-planner/internal/utils"
)

func newAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   60,
		RefreshTTLDays: 7,
		BcryptCost:     4, // min cost, tests only
	}
	return NewAuthService(cfg, db, repository.NewUserRepo(db), repository.NewTokenRepo(db)), mock
}

func userColumns() []string {
	return []string{"id", "email", "password_hash", "name", "role", "created_at"}
}

func TestRegister_WritesUserAndTokenAtomically(t *testing.T) {
	svc, mock := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (email, password_hash, name, role) VALUES (?,?,?,?)")).
		WithArgs("ada@example.com", sqlmock.AnyArg(), "Ada", "user").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens (user_id, token) VALUES (?,?)")).
		WithArgs(uint64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := svc.Register(context.Background(), "Ada@Example.com", "s3cret-pass", "Ada")
	require.NoError(t, err)
	require.EqualValues(t, 3, res.User.ID)
	require.Equal(t, "ada@example.com", res.User.Email)

	claims, err := utils.VerifyToken("test-secret", res.Access.Token, utils.TokenTypeAccess)
	require.NoError(t, err)
	require.EqualValues(t, 3, claims.UserID)
	_, err = utils.VerifyToken("test-secret", res.Refresh.Token, utils.TokenTypeRefresh)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmailRollsBack(t *testing.T) {
	svc, mock := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(sqlmockDuplicateErr{})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), "ada@example.com", "s3cret-pass", "Ada")
	require.ErrorIs(t, err, repository.ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

// sqlmockDuplicateErr mimics the driver error text for a unique-key hit.
type sqlmockDuplicateErr struct{}

func (sqlmockDuplicateErr) Error() string {
	return "Error 1062: Duplicate entry 'ada@example.com' for key 'users.email'"
}

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	svc, mock := newAuthService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=? LIMIT 1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)
	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)

	hash, err := utils.HashPassword("the-right-one", 4)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=? LIMIT 1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(3, "ada@example.com", hash, "Ada", "user", time.Now()))
	_, errWrong := svc.Login(context.Background(), "ada@example.com", "the-wrong-one")
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)

	require.Equal(t, errUnknown.Error(), errWrong.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_IssuesAndStoresNewPair(t *testing.T) {
	svc, mock := newAuthService(t)

	hash, err := utils.HashPassword("the-right-one", 4)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=? LIMIT 1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(3, "ada@example.com", hash, "Ada", "user", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens (user_id, token) VALUES (?,?)")).
		WithArgs(uint64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := svc.Login(context.Background(), "ada@example.com", "the-right-one")
	require.NoError(t, err)
	require.NotEmpty(t, res.Access.Token)
	require.NotEmpty(t, res.Refresh.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RejectsRetiredToken(t *testing.T) {
	svc, mock := newAuthService(t)

	old, err := utils.NewRefreshToken("test-secret", 3, 7)
	require.NoError(t, err)

	// A later login stored a different token; the presented one is retired.
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE user_id=? LIMIT 1")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "created_at"}).
			AddRow(1, 3, "a-newer-token", time.Now()))

	_, err = svc.Refresh(context.Background(), old.Token)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_AcceptsStoredToken(t *testing.T) {
	svc, mock := newAuthService(t)

	current, err := utils.NewRefreshToken("test-secret", 3, 7)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE user_id=? LIMIT 1")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "created_at"}).
			AddRow(1, 3, current.Token, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(3, "ada@example.com", "hash", "Ada", "user", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens (user_id, token) VALUES (?,?)")).
		WithArgs(uint64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := svc.Refresh(context.Background(), current.Token)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", res.User.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RejectsAccessTokenAsRefresh(t *testing.T) {
	svc, _ := newAuthService(t)

	access, err := utils.NewAccessToken("test-secret", 3, "ada@example.com", "user", 60)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), access.Token)
	require.ErrorIs(t, err, utils.ErrTokenInvalid)
}

func TestLogout_Idempotent(t *testing.T) {
	svc, mock := newAuthService(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE user_id=?")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.Logout(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
