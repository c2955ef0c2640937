package enums

import "fmt"

// DeliveryStatus tracks the lifecycle of a delivery-method transaction.
type DeliveryStatus string

const (
	DeliveryStatusUnpaid    DeliveryStatus = "UNPAID"
	DeliveryStatusPaid      DeliveryStatus = "PAID"
	DeliveryStatusShipped   DeliveryStatus = "SHIPPED"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusCancelled DeliveryStatus = "CANCELLED"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusUnpaid,
	DeliveryStatusPaid,
	DeliveryStatusShipped,
	DeliveryStatusDelivered,
	DeliveryStatusCancelled,
}

// String implements fmt.Stringer.
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
