package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

// Filters narrow catalog listings.
type Filters struct {
	ProductTypeID *uuid.UUID
	Search        string
}

// ProductList wraps one catalog page plus the next cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// Repository persists the catalog: types, packagings, products, variants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProductType(ctx context.Context, pt *models.ProductType) error
	ListProductTypes(ctx context.Context) ([]models.ProductType, error)
	DeleteProductType(ctx context.Context, id uuid.UUID) error

	CreatePackaging(ctx context.Context, p *models.Packaging) error
	ListPackagings(ctx context.Context) ([]models.Packaging, error)
	DeletePackaging(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, product *models.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params, filters Filters) (*ProductList, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteVariant(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProductType(ctx context.Context, pt *models.ProductType) error {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(pt).Error
}

func (r *repository) ListProductTypes(ctx context.Context) ([]models.ProductType, error) {
	var rows []models.ProductType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteProductType(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductType{}).Error
}

func (r *repository) CreatePackaging(ctx context.Context, p *models.Packaging) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) ListPackagings(ctx context.Context) ([]models.Packaging, error) {
	var rows []models.Packaging
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeletePackaging(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Packaging{}).Error
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.Variants {
		if product.Variants[i].ID == uuid.Nil {
			product.Variants[i].ID = uuid.New()
		}
		product.Variants[i].ProductID = product.ID
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("ProductType").
		Preload("Variants").
		Preload("Variants.Packaging").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListProducts(ctx context.Context, params pagination.Params, filters Filters) (*ProductList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("ProductType").
		Preload("Variants").
		Preload("Variants.Packaging")

	if filters.ProductTypeID != nil {
		query = query.Where("product_type_id = ?", *filters.ProductTypeID)
	}
	if filters.Search != "" {
		query = query.Where("name LIKE ?", "%"+filters.Search+"%")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("parse cursor: %w", err)
	}
	if cursor != nil {
		query = query.Where(
			r.db.Where("created_at < ?", cursor.CreatedAt).
				Or("created_at = ? AND id < ?", cursor.CreatedAt, cursor.ID),
		)
	}

	var rows []models.Product
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID.String(),
		})
	}

	return &ProductList{Products: rows, NextCursor: nextCursor}, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Product{}).Error
	})
}

func (r *repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Packaging").
		Where("id = ?", id).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) UpdateVariant(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductVariant{}).Error
}
