package enums

import "fmt"

// TxMethod selects the fulfillment track of a transaction. Fixed at creation.
type TxMethod string

const (
	TxMethodDelivery TxMethod = "DELIVERY"
	TxMethodManual   TxMethod = "MANUAL"
)

var validTxMethods = []TxMethod{TxMethodDelivery, TxMethodManual}

// String implements fmt.Stringer.
func (m TxMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known TxMethod.
func (m TxMethod) IsValid() bool {
	for _, candidate := range validTxMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseTxMethod converts raw input into a TxMethod.
func ParseTxMethod(value string) (TxMethod, error) {
	for _, candidate := range validTxMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction method %q", value)
}
