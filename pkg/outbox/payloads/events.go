package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
)

// TransactionCreatedEvent signals a new checkout with its Snap session.
type TransactionCreatedEvent struct {
	TransactionID string         `json:"transaction_id"`
	UserID        uuid.UUID      `json:"user_id"`
	Method        enums.TxMethod `json:"method"`
	TotalPrice    int64          `json:"total_price"`
	ItemCount     int            `json:"item_count"`
}

// TransactionUpdatedEvent is emitted on every lifecycle transition.
type TransactionUpdatedEvent struct {
	TransactionID  string                `json:"transaction_id"`
	UserID         uuid.UUID             `json:"user_id"`
	Method         enums.TxMethod        `json:"method"`
	DeliveryStatus *enums.DeliveryStatus `json:"delivery_status,omitempty"`
	ManualStatus   *enums.ManualStatus   `json:"manual_status,omitempty"`
	CancelReason   string                `json:"cancel_reason,omitempty"`
	IsRefundFailed bool                  `json:"is_refund_failed,omitempty"`
}

// StockIssueFlaggedEvent surfaces items that could not be reserved on payment.
type StockIssueFlaggedEvent struct {
	TransactionID string      `json:"transaction_id"`
	VariantIDs    []uuid.UUID `json:"variant_ids"`
	FlaggedAt     time.Time   `json:"flagged_at"`
}

// ChatMessageSentEvent tells downstream notifiers about a new chat message.
type ChatMessageSentEvent struct {
	RoomID    uuid.UUID `json:"room_id"`
	MessageID uuid.UUID `json:"message_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	SentAt    time.Time `json:"sent_at"`
}
