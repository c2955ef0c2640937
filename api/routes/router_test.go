package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	internalauth "github.com/adiwicaksana/tanisubur-backend/internal/auth"
	"github.com/adiwicaksana/tanisubur-backend/internal/ppn"
	"github.com/adiwicaksana/tanisubur-backend/internal/products"
	"github.com/adiwicaksana/tanisubur-backend/internal/users"
	pkgAuth "github.com/adiwicaksana/tanisubur-backend/pkg/auth"
	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "tanisubur-test",
			ExpirationMinutes: 15,
		},
		Company: config.CompanyConfig{ClientURL: "http://localhost:3000"},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB, *config.Config) {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.ProductType{},
		&models.Packaging{},
		&models.Product{},
		&models.ProductVariant{},
		&models.PPNConfig{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	productsSvc, err := products.NewService(products.NewRepository(db))
	if err != nil {
		t.Fatalf("products service: %v", err)
	}
	usersSvc, err := users.NewService(users.NewRepository(db))
	if err != nil {
		t.Fatalf("users service: %v", err)
	}
	ppnSvc, err := ppn.NewService(ppn.NewRepository(db))
	if err != nil {
		t.Fatalf("ppn service: %v", err)
	}

	cfg := testConfig()
	router := NewRouter(Deps{
		Config:   cfg,
		DB:       stubPinger{},
		Sessions: stubSessionChecker{},
		Users:    usersSvc,
		Products: productsSvc,
		PPN:      ppnSvc,
		Auth:     internalauth.Service(nil),
	})
	return router, db, cfg
}

func mintToken(t *testing.T, cfg *config.Config, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	t.Parallel()
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-TaniSubur-Env") != "test" {
		t.Fatalf("env header = %q", rec.Header().Get("X-TaniSubur-Env"))
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	t.Parallel()
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	t.Parallel()
	router, _, _ := newTestRouter(t)

	paths := []string{"/api/v1/me", "/api/v1/cart", "/api/v1/transactions"}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	t.Parallel()
	router, db, cfg := newTestRouter(t)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "budi@example.com",
		PasswordHash: "x",
		Name:         "Budi Santoso",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token := mintToken(t, cfg, user.ID, enums.UserRoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/reports/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestAuthenticatedProfileRead(t *testing.T) {
	t.Parallel()
	router, db, cfg := newTestRouter(t)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "siti@example.com",
		PasswordHash: "x",
		Name:         "Siti Rahayu",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token := mintToken(t, cfg, user.ID, enums.UserRoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.Email != "siti@example.com" {
		t.Fatalf("email = %q", envelope.Data.Email)
	}
}
