package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db"
	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

// VariantInput is one sellable unit attached to a product.
type VariantInput struct {
	PackagingID *uuid.UUID
	WeightKg    float64
	Composition string
	ImageURL    string
	PriceRupiah int64
	Stock       int
}

// CreateProductInput carries a new product plus its initial variants.
type CreateProductInput struct {
	ProductTypeID       uuid.UUID
	Name                string
	Description         string
	StorageInstructions string
	UsageInstructions   string
	Benefits            string
	ExpiredYears        int
	Variants            []VariantInput
}

// UpdateProductInput holds optional field updates; nil means untouched.
type UpdateProductInput struct {
	ProductTypeID       *uuid.UUID
	Name                *string
	Description         *string
	StorageInstructions *string
	UsageInstructions   *string
	Benefits            *string
	ExpiredYears        *int
}

// UpdateVariantInput holds optional variant field updates. Stock edits here are
// administrative corrections; the payment/cancel paths go through the ledger.
type UpdateVariantInput struct {
	PackagingID *uuid.UUID
	WeightKg    *float64
	Composition *string
	ImageURL    *string
	PriceRupiah *int64
	Stock       *int
}

// Service exposes catalog reads for everyone and writes for admins; the role
// gate itself lives in the route middleware.
type Service interface {
	CreateProductType(ctx context.Context, name string) (*models.ProductType, error)
	ListProductTypes(ctx context.Context) ([]models.ProductType, error)
	DeleteProductType(ctx context.Context, id uuid.UUID) error

	CreatePackaging(ctx context.Context, name string) (*models.Packaging, error)
	ListPackagings(ctx context.Context) ([]models.Packaging, error)
	DeletePackaging(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params, filters Filters) (*ProductList, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.ProductVariant, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, id uuid.UUID, input UpdateVariantInput) (*models.ProductVariant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProductType(ctx context.Context, name string) (*models.ProductType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	pt := &models.ProductType{Name: name}
	if err := s.repo.CreateProductType(ctx, pt); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product type %q already exists", name))
		}
		return nil, err
	}
	return pt, nil
}

func (s *service) ListProductTypes(ctx context.Context) ([]models.ProductType, error) {
	return s.repo.ListProductTypes(ctx)
}

func (s *service) DeleteProductType(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteProductType(ctx, id)
}

func (s *service) CreatePackaging(ctx context.Context, name string) (*models.Packaging, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	p := &models.Packaging{Name: name}
	if err := s.repo.CreatePackaging(ctx, p); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("packaging %q already exists", name))
		}
		return nil, err
	}
	return p, nil
}

func (s *service) ListPackagings(ctx context.Context) ([]models.Packaging, error) {
	return s.repo.ListPackagings(ctx)
}

func (s *service) DeletePackaging(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePackaging(ctx, id)
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.ProductTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product type is required")
	}

	variants := make([]models.ProductVariant, 0, len(input.Variants))
	for _, v := range input.Variants {
		if err := validateVariant(v); err != nil {
			return nil, err
		}
		variants = append(variants, models.ProductVariant{
			PackagingID: v.PackagingID,
			WeightKg:    v.WeightKg,
			Composition: v.Composition,
			ImageURL:    v.ImageURL,
			PriceRupiah: v.PriceRupiah,
			Stock:       v.Stock,
		})
	}

	product := &models.Product{
		ProductTypeID:       input.ProductTypeID,
		Name:                strings.TrimSpace(input.Name),
		Description:         input.Description,
		StorageInstructions: input.StorageInstructions,
		UsageInstructions:   input.UsageInstructions,
		Benefits:            input.Benefits,
		ExpiredYears:        input.ExpiredYears,
		Variants:            variants,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return s.repo.FindProduct(ctx, product.ID)
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params, filters Filters) (*ProductList, error) {
	return s.repo.ListProducts(ctx, params, filters)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.ProductTypeID != nil {
		updates["product_type_id"] = *input.ProductTypeID
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.StorageInstructions != nil {
		updates["storage_instructions"] = *input.StorageInstructions
	}
	if input.UsageInstructions != nil {
		updates["usage_instructions"] = *input.UsageInstructions
	}
	if input.Benefits != nil {
		updates["benefits"] = *input.Benefits
	}
	if input.ExpiredYears != nil {
		updates["expired_years"] = *input.ExpiredYears
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.FindProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.ProductVariant, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	if err := validateVariant(input); err != nil {
		return nil, err
	}
	variant := &models.ProductVariant{
		ProductID:   productID,
		PackagingID: input.PackagingID,
		WeightKg:    input.WeightKg,
		Composition: input.Composition,
		ImageURL:    input.ImageURL,
		PriceRupiah: input.PriceRupiah,
		Stock:       input.Stock,
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, err
	}
	return s.repo.FindVariant(ctx, variant.ID)
}

func (s *service) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.repo.FindVariant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, err
	}
	return variant, nil
}

func (s *service) UpdateVariant(ctx context.Context, id uuid.UUID, input UpdateVariantInput) (*models.ProductVariant, error) {
	if _, err := s.FindVariant(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.PackagingID != nil {
		updates["packaging_id"] = *input.PackagingID
	}
	if input.WeightKg != nil {
		updates["weight_kg"] = *input.WeightKg
	}
	if input.Composition != nil {
		updates["composition"] = *input.Composition
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.PriceRupiah != nil {
		if *input.PriceRupiah <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price_rupiah"] = *input.PriceRupiah
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateVariant(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.FindVariant(ctx, id)
}

func (s *service) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	if _, err := s.FindVariant(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteVariant(ctx, id)
}

func validateVariant(v VariantInput) error {
	if v.PriceRupiah <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant price must be positive")
	}
	if v.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant stock cannot be negative")
	}
	return nil
}
