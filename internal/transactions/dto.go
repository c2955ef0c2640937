package transactions

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
)

// CreateInput captures everything needed to open a transaction. The items
// always come from the user's active cart, never from the request.
type CreateInput struct {
	UserID          uuid.UUID
	Method          enums.TxMethod
	ShippingAddress *string
	ActorRole       string
}

// CreateResult returns the persisted transaction plus the hosted payment handle.
type CreateResult struct {
	Transaction *models.Transaction
	SnapToken   string
	SnapURL     string
}

// CancelInput carries the cancellation request.
type CancelInput struct {
	TransactionID string
	ActorUserID   uuid.UUID
	ActorRole     string
	Reason        string
}

// UpdateStatusInput advances a transaction one step on its track.
type UpdateStatusInput struct {
	TransactionID string
	Target        string
	ActorUserID   uuid.UUID
	ActorRole     string
}

// Filters narrow transaction lists.
type Filters struct {
	Method   *enums.TxMethod
	Status   string
	UserID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
}

// Summary is the list row returned by paginated queries.
type Summary struct {
	ID         string         `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	UserName   string         `json:"user_name"`
	Method     enums.TxMethod `json:"method"`
	Status     string         `json:"status"`
	TotalPrice int64          `json:"total_price"`
	ItemCount  int            `json:"item_count"`
	HasIssue   bool           `json:"has_stock_issue"`
	CreatedAt  time.Time      `json:"created_at"`
}

// List wraps the paginated summaries plus the next page cursor.
type List struct {
	Transactions []Summary `json:"transactions"`
	NextCursor   string    `json:"next_cursor,omitempty"`
}
