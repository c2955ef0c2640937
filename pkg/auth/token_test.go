package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	"github.com/google/uuid"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "tanisubur",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()

	payload := AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleCustomer,
		JTI:    "session-1",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID != "session-1" {
		t.Fatalf("expected jti session-1, got %s", claims.ID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "tanisubur",
		ExpirationMinutes: 10,
	}

	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if strings.TrimSpace(claims.ID) == "" {
		t.Fatal("expected generated jti")
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "tanisubur",
		ExpirationMinutes: 10,
	}
	now := time.Now()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	tampered := cfg
	tampered.Secret = "other-secret"
	if _, err := ParseAccessToken(tampered, token); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestParseAccessTokenAllowExpired(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "tanisubur",
		ExpirationMinutes: 1,
	}
	minted := time.Now().Add(-time.Hour)

	token, err := MintAccessToken(cfg, minted, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
		JTI:    "expired-session",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expiry validation failure")
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("parse expired token: %v", err)
	}
	if claims.ID != "expired-session" {
		t.Fatalf("expected jti expired-session, got %s", claims.ID)
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	base := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "tanisubur",
		ExpirationMinutes: 10,
	}
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer}

	missingSecret := base
	missingSecret.Secret = ""
	if _, err := MintAccessToken(missingSecret, time.Now(), payload); err == nil {
		t.Fatal("expected error for missing secret")
	}

	badRole := payload
	badRole.Role = enums.UserRole("manager")
	if _, err := MintAccessToken(base, time.Now(), badRole); err == nil {
		t.Fatal("expected error for invalid role")
	}
}
