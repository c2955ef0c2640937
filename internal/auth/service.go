package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/internal/users"
	pkgauth "github.com/adiwicaksana/tanisubur-backend/pkg/auth"
	"github.com/adiwicaksana/tanisubur-backend/pkg/auth/session"
	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	"github.com/adiwicaksana/tanisubur-backend/pkg/db"
	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/security"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// RegisterInput carries a new customer signup.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
}

// LoginInput carries a credential check.
type LoginInput struct {
	Email    string
	Password string
}

// TokenPair is the session handle returned to clients.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Result bundles the authenticated user with their tokens.
type Result struct {
	User   *models.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

// Service owns credential flows: register, login, refresh rotation, logout.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Result, error)
	Login(ctx context.Context, input LoginInput) (*Result, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	users    users.Repository
	sessions sessionManager
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(userRepo users.Repository, sessions sessionManager, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if strings.TrimSpace(jwtCfg.Secret) == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		users:    userRepo,
		sessions: sessions,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		now:      time.Now,
	}, nil
}

const minPasswordLen = 8

func (s *service) Register(ctx context.Context, input RegisterInput) (*Result, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(input.Password) < minPasswordLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Phone:        input.Phone,
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Tokens: *tokens}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Result, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same answer as a wrong password so the response does not leak
			// which addresses exist.
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	now := s.now()
	if err := s.users.Update(ctx, user.ID, map[string]any{"last_login_at": now}); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Tokens: *tokens}, nil
}

// Refresh rotates the session: the expired access token identifies the
// session, the refresh token proves possession.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	return s.sessions.Revoke(ctx, accessID)
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
