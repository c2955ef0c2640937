package models

import (
	"time"

	"github.com/google/uuid"
)

// PPNConfig is an append-only tax-rate history; the latest row is current.
// Existing transactions keep the percentage they were created with.
type PPNConfig struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Percentage float64   `gorm:"column:percentage;not null" json:"percentage"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
