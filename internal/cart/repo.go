package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
)

// Repository persists the single active cart per user.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	Create(ctx context.Context, cart *models.CartRecord) error
	FindItem(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	UpsertItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, variantID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Variant").
		Preload("Items.Variant.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.CartRecord) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *repository) FindItem(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpsertItem(ctx context.Context, item *models.CartItem) error {
	existing, err := r.FindItem(ctx, item.CartID, item.VariantID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		return r.db.WithContext(ctx).Create(item).Error
	}
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", existing.ID).
		Update("quantity", item.Quantity).Error
}

func (r *repository) DeleteItem(ctx context.Context, cartID, variantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
