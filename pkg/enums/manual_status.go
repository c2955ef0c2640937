package enums

import "fmt"

// ManualStatus tracks the lifecycle of a manual-pickup transaction.
type ManualStatus string

const (
	ManualStatusUnpaid     ManualStatus = "UNPAID"
	ManualStatusPaid       ManualStatus = "PAID"
	ManualStatusProcessing ManualStatus = "PROCESSING"
	ManualStatusComplete   ManualStatus = "COMPLETE"
	ManualStatusCancelled  ManualStatus = "CANCELLED"
)

var validManualStatuses = []ManualStatus{
	ManualStatusUnpaid,
	ManualStatusPaid,
	ManualStatusProcessing,
	ManualStatusComplete,
	ManualStatusCancelled,
}

// String implements fmt.Stringer.
func (s ManualStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ManualStatus.
func (s ManualStatus) IsValid() bool {
	for _, candidate := range validManualStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseManualStatus converts raw input into a ManualStatus.
func ParseManualStatus(value string) (ManualStatus, error) {
	for _, candidate := range validManualStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid manual status %q", value)
}
