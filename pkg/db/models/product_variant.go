package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductVariant is the sellable unit. Stock is mutated only through the
// inventory ledger on the payment/cancel paths.
type ProductVariant struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	PackagingID *uuid.UUID     `gorm:"column:packaging_id;type:uuid" json:"packaging_id,omitempty"`
	WeightKg    float64        `gorm:"column:weight_kg;not null;default:0" json:"weight_kg"`
	Composition string         `gorm:"column:composition;type:text" json:"composition"`
	ImageURL    string         `gorm:"column:image_url" json:"image_url"`
	PriceRupiah int64          `gorm:"column:price_rupiah;not null" json:"price_rupiah"`
	Stock       int            `gorm:"column:stock;not null;default:0" json:"stock"`
	Product     *Product       `gorm:"foreignKey:ProductID" json:"-"`
	Packaging   *Packaging     `gorm:"foreignKey:PackagingID" json:"packaging,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}
