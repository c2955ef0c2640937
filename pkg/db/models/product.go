package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a fertilizer product; sellable units are its variants.
type Product struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductTypeID       uuid.UUID        `gorm:"column:product_type_id;type:uuid;not null" json:"product_type_id"`
	Name                string           `gorm:"column:name;not null" json:"name"`
	Description         string           `gorm:"column:description;type:text" json:"description"`
	StorageInstructions string           `gorm:"column:storage_instructions;type:text" json:"storage_instructions"`
	UsageInstructions   string           `gorm:"column:usage_instructions;type:text" json:"usage_instructions"`
	Benefits            string           `gorm:"column:benefits;type:text" json:"benefits"`
	ExpiredYears        int              `gorm:"column:expired_years;not null;default:0" json:"expired_years"`
	ProductType         *ProductType     `gorm:"foreignKey:ProductTypeID" json:"product_type,omitempty"`
	Variants            []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"column:deleted_at;index" json:"-"`
}
