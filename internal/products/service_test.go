package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.ProductType{},
		&models.Packaging{},
		&models.Product{},
		&models.ProductVariant{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedCatalog(t *testing.T, svc Service) (*models.ProductType, *models.Packaging) {
	t.Helper()
	ctx := context.Background()
	pt, err := svc.CreateProductType(ctx, "NPK "+uuid.NewString())
	if err != nil {
		t.Fatalf("create product type: %v", err)
	}
	packaging, err := svc.CreatePackaging(ctx, "Karung 50kg "+uuid.NewString())
	if err != nil {
		t.Fatalf("create packaging: %v", err)
	}
	return pt, packaging
}

func TestCreateProductWithVariants(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	pt, packaging := seedCatalog(t, svc)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		ProductTypeID: pt.ID,
		Name:          "Pupuk NPK Mutiara 16-16-16",
		Description:   "Pupuk majemuk untuk semua fase tanam",
		ExpiredYears:  3,
		Variants: []VariantInput{
			{PackagingID: &packaging.ID, WeightKg: 50, PriceRupiah: 650000, Stock: 40},
			{PackagingID: &packaging.ID, WeightKg: 25, PriceRupiah: 340000, Stock: 80},
		},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if len(product.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(product.Variants))
	}
	if product.ProductType == nil || product.ProductType.ID != pt.ID {
		t.Fatalf("expected product type preloaded, got %+v", product.ProductType)
	}
	for _, variant := range product.Variants {
		if variant.ProductID != product.ID {
			t.Fatalf("variant not attached to product: %+v", variant)
		}
	}
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	pt, _ := seedCatalog(t, svc)

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{name: "empty name", input: CreateProductInput{ProductTypeID: pt.ID}},
		{name: "missing type", input: CreateProductInput{Name: "Pupuk"}},
		{
			name: "zero price variant",
			input: CreateProductInput{
				ProductTypeID: pt.ID,
				Name:          "Pupuk",
				Variants:      []VariantInput{{PriceRupiah: 0, Stock: 1}},
			},
		},
		{
			name: "negative stock variant",
			input: CreateProductInput{
				ProductTypeID: pt.ID,
				Name:          "Pupuk",
				Variants:      []VariantInput{{PriceRupiah: 1000, Stock: -1}},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDuplicateProductTypeConflicts(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProductType(ctx, "Organik"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.CreateProductType(ctx, "Organik")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateProductPartial(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	pt, _ := seedCatalog(t, svc)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		ProductTypeID: pt.ID,
		Name:          "Pupuk Urea",
		Description:   "Nitrogen tinggi",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "Pupuk Urea Nitrea"
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{Name: &newName})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("expected renamed product, got %q", updated.Name)
	}
	if updated.Description != "Nitrogen tinggi" {
		t.Fatalf("untouched fields must survive, got %q", updated.Description)
	}
}

func TestVariantLifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	pt, packaging := seedCatalog(t, svc)

	product, err := svc.CreateProduct(ctx, CreateProductInput{ProductTypeID: pt.ID, Name: "Pupuk KCl"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	variant, err := svc.AddVariant(ctx, product.ID, VariantInput{
		PackagingID: &packaging.ID,
		WeightKg:    25,
		PriceRupiah: 400000,
		Stock:       15,
	})
	if err != nil {
		t.Fatalf("add variant: %v", err)
	}

	newPrice := int64(425000)
	updated, err := svc.UpdateVariant(ctx, variant.ID, UpdateVariantInput{PriceRupiah: &newPrice})
	if err != nil {
		t.Fatalf("update variant: %v", err)
	}
	if updated.PriceRupiah != 425000 {
		t.Fatalf("expected new price, got %d", updated.PriceRupiah)
	}
	if updated.Stock != 15 {
		t.Fatalf("stock must survive a price edit, got %d", updated.Stock)
	}

	if err := svc.DeleteVariant(ctx, variant.ID); err != nil {
		t.Fatalf("delete variant: %v", err)
	}
	_, err = svc.FindVariant(ctx, variant.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after soft delete, got %v", err)
	}
}

func TestListProductsPagination(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	pt, _ := seedCatalog(t, svc)

	for i := 0; i < 5; i++ {
		_, err := svc.CreateProduct(ctx, CreateProductInput{
			ProductTypeID: pt.ID,
			Name:          "Pupuk " + uuid.NewString(),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := svc.ListProducts(ctx, pagination.Params{Limit: 2}, Filters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Products) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page.Products))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	seen := map[uuid.UUID]bool{}
	for _, p := range page.Products {
		seen[p.ID] = true
	}

	rest, err := svc.ListProducts(ctx, pagination.Params{Limit: 10, Cursor: page.NextCursor}, Filters{})
	if err != nil {
		t.Fatalf("list rest: %v", err)
	}
	if len(rest.Products) != 3 {
		t.Fatalf("expected remaining 3 rows, got %d", len(rest.Products))
	}
	for _, p := range rest.Products {
		if seen[p.ID] {
			t.Fatalf("row %s appeared on both pages", p.ID)
		}
	}
	if rest.NextCursor != "" {
		t.Fatalf("expected exhausted cursor, got %q", rest.NextCursor)
	}
}

func TestDeleteProductCascadesVariants(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	pt, packaging := seedCatalog(t, svc)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		ProductTypeID: pt.ID,
		Name:          "Pupuk ZA",
		Variants:      []VariantInput{{PackagingID: &packaging.ID, PriceRupiah: 250000, Stock: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = svc.GetProduct(ctx, product.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	var liveVariants int64
	err = db.Model(&models.ProductVariant{}).
		Where("product_id = ?", product.ID).
		Count(&liveVariants).Error
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if liveVariants != 0 {
		t.Fatalf("variants must be soft deleted with the product, got %d live", liveVariants)
	}
}
