package ppn

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:ppn_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.PPNConfig{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestCurrentPercentageMissingConfig(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.CurrentPercentage(context.Background())
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestSetPercentageAppendsHistory(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetPercentage(ctx, 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := svc.SetPercentage(ctx, 11); err != nil {
		t.Fatalf("set: %v", err)
	}

	pct, err := svc.CurrentPercentage(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if pct != 11 {
		t.Fatalf("expected latest rate 11, got %g", pct)
	}

	history, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("old rates must stay in history, got %d rows", len(history))
	}
	if history[0].Percentage != 11 {
		t.Fatalf("expected newest first, got %g", history[0].Percentage)
	}
}

func TestSetPercentageValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	for _, pct := range []float64{-1, 101} {
		_, err := svc.SetPercentage(context.Background(), pct)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %g, got %v", pct, err)
		}
	}
}
