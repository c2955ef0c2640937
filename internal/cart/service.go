package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

type variantLoader interface {
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

// Service manages the single active cart per user. The cart is only a staging
// area: stock is not reserved until the resulting transaction is paid.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	SetItem(ctx context.Context, userID uuid.UUID, variantID uuid.UUID, quantity int) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, variantID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	ClearOwn(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	variants variantLoader
}

// NewService builds the cart service.
func NewService(repo Repository, variants variantLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant loader required")
	}
	return &service{repo: repo, variants: variants}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	return s.findOrCreate(ctx, userID)
}

func (s *service) SetItem(ctx context.Context, userID uuid.UUID, variantID uuid.UUID, quantity int) (*models.CartRecord, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if _, err := s.variants.FindVariant(ctx, variantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, err
	}

	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.repo.UpsertItem(ctx, &models.CartItem{
		CartID:    cart.ID,
		VariantID: variantID,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByUser(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, variantID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, variantID); err != nil {
		return nil, err
	}
	return s.repo.FindByUser(ctx, userID)
}

// Clear empties the user's cart inside the caller's transaction. A user
// without a cart row is a no-op so checkout never fails on it.
func (s *service) Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return repo.DeleteItems(ctx, cart.ID)
}

func (s *service) ClearOwn(ctx context.Context, userID uuid.UUID) error {
	return s.Clear(ctx, nil, userID)
}

func (s *service) findOrCreate(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	fresh := &models.CartRecord{UserID: userID}
	if err := s.repo.Create(ctx, fresh); err != nil {
		return nil, err
	}
	return s.repo.FindByUser(ctx, userID)
}
