package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string         `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Phone        *string        `gorm:"column:phone" json:"phone,omitempty"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'" json:"role"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
