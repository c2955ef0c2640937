package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/internal/users"
	pkgauth "github.com/adiwicaksana/tanisubur-backend/pkg/auth"
	"github.com/adiwicaksana/tanisubur-backend/pkg/auth/session"
	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

type fakeSessions struct {
	refreshByAccess map[string]string
	revoked         []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{refreshByAccess: make(map[string]string)}
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + uuid.NewString()
	f.refreshByAccess[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.refreshByAccess[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.refreshByAccess, oldAccessID)
	newAccessID := session.NewAccessID()
	newToken := "refresh-" + uuid.NewString()
	f.refreshByAccess[newAccessID] = newToken
	return newAccessID, newToken, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	delete(f.refreshByAccess, accessID)
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "tanisubur-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func newTestService(t *testing.T) (Service, *fakeSessions, *gorm.DB) {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sessions := newFakeSessions()
	svc, err := NewService(users.NewRepository(db), sessions, testJWTConfig(), config.PasswordConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, sessions, db
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{
		Name:     "Budi Santoso",
		Email:    "Budi@Example.com",
		Password: "rahasia-banget",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.User.Email != "budi@example.com" {
		t.Fatalf("expected lowercased email, got %q", registered.User.Email)
	}
	if registered.User.Role != enums.UserRoleCustomer {
		t.Fatalf("signups are customers, got %q", registered.User.Role)
	}
	if registered.User.PasswordHash == "rahasia-banget" {
		t.Fatal("password must be hashed")
	}
	if registered.Tokens.AccessToken == "" || registered.Tokens.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), registered.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != registered.User.ID || claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected claims %+v", claims)
	}

	logged, err := svc.Login(ctx, LoginInput{Email: "budi@example.com", Password: "rahasia-banget"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.User.LastLoginAt == nil {
		t.Fatal("expected last_login_at stamped")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	input := RegisterInput{Name: "Budi", Email: "budi@example.com", Password: "rahasia-banget"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Budi", Email: "budi@example.com", Password: "rahasia-banget"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(ctx, LoginInput{Email: "budi@example.com", Password: "salah"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// Unknown email answers the same way.
	_, err = svc.Login(ctx, LoginInput{Email: "tidak-ada@example.com", Password: "apapun"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Name: "Budi", Email: "budi@example.com", Password: "rahasia-banget"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	err = db.Model(&models.User{}).Where("id = ?", registered.User.ID).Update("is_active", false).Error
	if err != nil {
		t.Fatalf("disable: %v", err)
	}

	_, err = svc.Login(ctx, LoginInput{Email: "budi@example.com", Password: "rahasia-banget"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	svc, sessions, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Name: "Budi", Email: "budi@example.com", Password: "rahasia-banget"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, err := svc.Refresh(ctx, registered.Tokens.AccessToken, registered.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.RefreshToken == registered.Tokens.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	// The old pair is dead after rotation.
	_, err = svc.Refresh(ctx, registered.Tokens.AccessToken, registered.Tokens.RefreshToken)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replayed refresh, got %v", err)
	}

	if len(sessions.refreshByAccess) != 1 {
		t.Fatalf("expected exactly one live session, got %d", len(sessions.refreshByAccess))
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{name: "missing name", input: RegisterInput{Email: "a@b.c", Password: "rahasia-banget"}},
		{name: "bad email", input: RegisterInput{Name: "Budi", Email: "not-an-email", Password: "rahasia-banget"}},
		{name: "short password", input: RegisterInput{Name: "Budi", Email: "a@b.c", Password: "pendek"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
