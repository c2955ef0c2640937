package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionItem is one cart line frozen at checkout. VariantID is a soft
// reference: the variant may change or disappear afterwards.
type TransactionItem struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"` // TI-<uuid>
	TransactionID string    `gorm:"column:transaction_id;not null;index" json:"transaction_id"`
	VariantID     uuid.UUID `gorm:"column:variant_id;type:uuid;not null" json:"variant_id"`
	Quantity      int       `gorm:"column:quantity;not null" json:"quantity"`
	PriceRupiah   int64     `gorm:"column:price_rupiah;not null" json:"price_rupiah"`
	IsStockIssue  bool      `gorm:"column:is_stock_issue;not null;default:false" json:"is_stock_issue"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
