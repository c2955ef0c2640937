package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

type dbVariantLoader struct {
	db *gorm.DB
}

func (l dbVariantLoader) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := l.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.ProductType{},
		&models.Packaging{},
		&models.Product{},
		&models.ProductVariant{},
		&models.CartRecord{},
		&models.CartItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), dbVariantLoader{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedVariant(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	productType := models.ProductType{ID: uuid.New(), Name: "npk-" + uuid.NewString()}
	if err := db.Create(&productType).Error; err != nil {
		t.Fatalf("seed product type: %v", err)
	}
	product := models.Product{ID: uuid.New(), ProductTypeID: productType.ID, Name: "Pupuk " + uuid.NewString()}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{ID: uuid.New(), ProductID: product.ID, PriceRupiah: 10000, Stock: 10}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func TestGetCreatesEmptyCart(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	userID := uuid.New()

	cart, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cart.UserID != userID {
		t.Fatalf("unexpected owner %s", cart.UserID)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(cart.Items))
	}

	again, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatal("expected the same cart row on repeat fetch")
	}
}

func TestSetItemUpserts(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	variantID := seedVariant(t, db)

	cart, err := svc.SetItem(ctx, userID, variantID, 2)
	if err != nil {
		t.Fatalf("set item: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart %+v", cart.Items)
	}

	// Same variant replaces the quantity instead of adding a second line.
	cart, err = svc.SetItem(ctx, userID, variantID, 5)
	if err != nil {
		t.Fatalf("set item: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected single line with quantity 5, got %+v", cart.Items)
	}

	if cart.Items[0].Variant == nil || cart.Items[0].Variant.PriceRupiah != 10000 {
		t.Fatalf("expected variant preloaded, got %+v", cart.Items[0].Variant)
	}
}

func TestSetItemValidation(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	variantID := seedVariant(t, db)

	_, err := svc.SetItem(ctx, userID, variantID, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.SetItem(ctx, userID, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	variantA := seedVariant(t, db)
	variantB := seedVariant(t, db)

	if _, err := svc.SetItem(ctx, userID, variantA, 1); err != nil {
		t.Fatalf("set item: %v", err)
	}
	if _, err := svc.SetItem(ctx, userID, variantB, 2); err != nil {
		t.Fatalf("set item: %v", err)
	}

	cart, err := svc.RemoveItem(ctx, userID, variantA)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].VariantID != variantB {
		t.Fatalf("expected only variant b left, got %+v", cart.Items)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Clear(ctx, tx, userID)
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	cart, err = svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected cleared cart, got %d items", len(cart.Items))
	}
}

func TestClearWithoutCartIsNoOp(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Clear(context.Background(), tx, uuid.New())
	})
	if err != nil {
		t.Fatalf("clear without cart must be a no-op: %v", err)
	}
}
