package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
)

// OutboxEvent represents an append-only event emitted via the outbox pattern.
// AggregateID is text because transaction ids carry the TX- prefix.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:text;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:text;not null"`
	AggregateID   string                    `gorm:"column:aggregate_id;not null;index"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
}
