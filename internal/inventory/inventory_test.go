package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

func TestReserveOnPayment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	variantA := seedVariant(t, db, 5)
	variantB := seedVariant(t, db, 1)

	items := []models.TransactionItem{
		seedItem(t, db, "TX-1", variantA, 3),
		seedItem(t, db, "TX-1", variantB, 2),
	}

	var outcomes []Outcome
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		outcomes, terr = ReserveOnPayment(ctx, tx, items)
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].Applied || outcomes[0].StockIssue {
		t.Fatalf("expected first item reserved, got %+v", outcomes[0])
	}
	if outcomes[1].Applied || !outcomes[1].StockIssue {
		t.Fatalf("expected second item flagged, got %+v", outcomes[1])
	}

	if got := variantStock(t, db, variantA); got != 2 {
		t.Fatalf("expected variant a stock 2, got %d", got)
	}
	if got := variantStock(t, db, variantB); got != 1 {
		t.Fatalf("expected variant b stock untouched, got %d", got)
	}

	var flagged models.TransactionItem
	if err := db.First(&flagged, "id = ?", items[1].ID).Error; err != nil {
		t.Fatalf("load flagged item: %v", err)
	}
	if !flagged.IsStockIssue {
		t.Fatal("expected is_stock_issue persisted")
	}

	if issues := StockIssueItems(outcomes); len(issues) != 1 || issues[0].VariantID != variantB {
		t.Fatalf("unexpected stock issue slice %+v", issues)
	}
}

func TestReserveOnPaymentExactStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, db, 4)
	item := seedItem(t, db, "TX-2", variant, 4)

	var outcomes []Outcome
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		outcomes, terr = ReserveOnPayment(ctx, tx, []models.TransactionItem{item})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !outcomes[0].Applied {
		t.Fatalf("expected exact-stock reservation to apply, got %+v", outcomes[0])
	}
	if got := variantStock(t, db, variant); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestReserveOnPaymentInvalidQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	variant := seedVariant(t, db, 5)
	item := models.TransactionItem{ID: "TI-" + uuid.NewString(), TransactionID: "TX-3", VariantID: variant, Quantity: 0}

	_, err := ReserveOnPayment(ctx, db, []models.TransactionItem{item})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReleaseOnCancelSkipsFlaggedItems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	variantA := seedVariant(t, db, 2)
	variantB := seedVariant(t, db, 10)

	itemA := seedItem(t, db, "TX-4", variantA, 3)
	itemB := seedItem(t, db, "TX-4", variantB, 5)
	itemB.IsStockIssue = true
	if err := db.Model(&models.TransactionItem{}).Where("id = ?", itemB.ID).UpdateColumn("is_stock_issue", true).Error; err != nil {
		t.Fatalf("flag item: %v", err)
	}

	var outcomes []Outcome
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		outcomes, terr = ReleaseOnCancel(ctx, tx, []models.TransactionItem{itemA, itemB})
		return terr
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	if !outcomes[0].Applied {
		t.Fatalf("expected unflagged item released, got %+v", outcomes[0])
	}
	if outcomes[1].Applied {
		t.Fatalf("expected flagged item skipped, got %+v", outcomes[1])
	}

	if got := variantStock(t, db, variantA); got != 5 {
		t.Fatalf("expected variant a stock 5, got %d", got)
	}
	if got := variantStock(t, db, variantB); got != 10 {
		t.Fatalf("expected variant b stock untouched, got %d", got)
	}
}

func TestReleaseOnCancelMissingVariant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	item := seedItem(t, db, "TX-5", uuid.New(), 2)

	var outcomes []Outcome
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		outcomes, terr = ReleaseOnCancel(ctx, tx, []models.TransactionItem{item})
		return terr
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if outcomes[0].Applied {
		t.Fatalf("expected no-op for missing variant, got %+v", outcomes[0])
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.ProductType{},
		&models.Packaging{},
		&models.Product{},
		&models.ProductVariant{},
		&models.TransactionItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	productType := models.ProductType{ID: uuid.New(), Name: "npk-" + uuid.NewString()}
	if err := db.Create(&productType).Error; err != nil {
		t.Fatalf("seed product type: %v", err)
	}
	product := models.Product{ID: uuid.New(), ProductTypeID: productType.ID, Name: "Pupuk " + uuid.NewString()}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{
		ID:          uuid.New(),
		ProductID:   product.ID,
		PriceRupiah: 10000,
		Stock:       stock,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func seedItem(t *testing.T, db *gorm.DB, txID string, variantID uuid.UUID, qty int) models.TransactionItem {
	t.Helper()
	item := models.TransactionItem{
		ID:            "TI-" + uuid.NewString(),
		TransactionID: txID,
		VariantID:     variantID,
		Quantity:      qty,
		PriceRupiah:   10000,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func variantStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", id).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	return variant.Stock
}
