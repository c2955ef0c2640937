package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one variant line inside a cart.
type CartItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CartID    uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index" json:"cart_id"`
	VariantID uuid.UUID       `gorm:"column:variant_id;type:uuid;not null" json:"variant_id"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
