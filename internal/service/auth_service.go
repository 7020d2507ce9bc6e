// Package service holds the business logic between the HTTP handlers
// and the repositories: credential checks, token issuance, task
// validation and ownership enforcement.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/task-planner/internal/config"
	"github.com/iliyamo/task-planner/internal/model"
	"github.com/iliyamo/task-planner/internal/repository"
	"github.com/iliyamo/task-planner/internal/utils"
)

// ErrInvalidCredentials covers every authentication failure: unknown
// email, wrong password, refresh token not matching the stored one,
// user deleted since issuance. Callers must not be able to tell
// which case occurred.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService registers and authenticates users and manages their
// token pairs. Multi-row writes run inside a single transaction on
// DB; the repositories only contribute statements.
type AuthService struct {
	Cfg    config.Config
	DB     *sql.DB
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthService(cfg config.Config, db *sql.DB, u *repository.UserRepo, t *repository.TokenRepo) *AuthService {
	return &AuthService{Cfg: cfg, DB: db, Users: u, Tokens: t}
}

// AuthResult is the outcome of register, login and refresh: the user
// plus a freshly issued token pair.
type AuthResult struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// Register creates a user and issues its first token pair. The user
// row and the refresh-token row are written in one transaction:
// either both exist afterwards or neither does. A taken email
// surfaces as repository.ErrEmailExists.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := utils.HashPassword(password, s.Cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return AuthResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	uid, err := s.Users.CreateTx(ctx, tx, email, hash, name, "user")
	if err != nil {
		return AuthResult{}, err
	}

	access, err := utils.NewAccessToken(s.Cfg.JWTSecret, uid, email, "user", s.Cfg.AccessTTLMin)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.Cfg.JWTSecret, uid, s.Cfg.RefreshTTLDays)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.Tokens.UpsertTx(ctx, tx, uid, refresh.Token); err != nil {
		return AuthResult{}, fmt.Errorf("save refresh token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return AuthResult{}, err
	}

	u := model.User{ID: uid, Email: email, Name: name, Role: "user"}
	return AuthResult{User: u, Access: access, Refresh: refresh}, nil
}

// Login verifies credentials and issues a new token pair, replacing
// the stored refresh token. Unknown email and wrong password return
// the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issuePair(ctx, u)
}

// Refresh exchanges a valid refresh token for a new token pair. The
// presented token must both verify as type=refresh and match the
// stored row: a login from another device overwrites the row and
// retires every previously issued refresh token.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (AuthResult, error) {
	claims, err := utils.VerifyToken(s.Cfg.JWTSecret, rawToken, utils.TokenTypeRefresh)
	if err != nil {
		return AuthResult{}, err
	}

	stored, err := s.Tokens.GetByUser(ctx, claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if stored.Token != rawToken {
		return AuthResult{}, ErrInvalidCredentials
	}

	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	return s.issuePair(ctx, u)
}

// Logout deletes the user's refresh-token row. Idempotent.
func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	return s.Tokens.DeleteByUser(ctx, userID)
}

func (s *AuthService) issuePair(ctx context.Context, u model.User) (AuthResult, error) {
	access, err := utils.NewAccessToken(s.Cfg.JWTSecret, u.ID, u.Email, u.Role, s.Cfg.AccessTTLMin)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.Cfg.JWTSecret, u.ID, s.Cfg.RefreshTTLDays)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.Tokens.Upsert(ctx, u.ID, refresh.Token); err != nil {
		return AuthResult{}, fmt.Errorf("save refresh token: %w", err)
	}
	return AuthResult{User: u, Access: access, Refresh: refresh}, nil
}
