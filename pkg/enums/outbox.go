package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateTransaction OutboxAggregateType = "transaction"
	AggregateChatMessage OutboxAggregateType = "chat_message"
	AggregateProduct     OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateTransaction,
	AggregateChatMessage,
	AggregateProduct,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventTransactionCreated OutboxEventType = "transaction_created"
	EventTransactionUpdated OutboxEventType = "transaction_updated"
	EventChatMessageSent    OutboxEventType = "chat_message_sent"
	EventStockIssueFlagged  OutboxEventType = "stock_issue_flagged"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTransactionCreated,
	EventTransactionUpdated,
	EventChatMessageSent,
	EventStockIssueFlagged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
