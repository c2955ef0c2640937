package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom pairs one customer with the support staff.
type ChatRoom struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	Messages  []ChatMessage `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// ChatMessage is one message inside a room. Real-time fan-out happens off the
// outbox; this row is the durable record.
type ChatMessage struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RoomID    uuid.UUID  `gorm:"column:room_id;type:uuid;not null;index" json:"room_id"`
	SenderID  uuid.UUID  `gorm:"column:sender_id;type:uuid;not null" json:"sender_id"`
	Body      string     `gorm:"column:body;type:text;not null" json:"body"`
	ReadAt    *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
