package transactions

import (
	"fmt"

	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

// Status pairs the transaction method with its populated track value. The two
// tracks never mix: a DELIVERY transaction only ever carries a DeliveryStatus
// and a MANUAL transaction only ever carries a ManualStatus.
type Status struct {
	Method   enums.TxMethod
	Delivery *enums.DeliveryStatus
	Manual   *enums.ManualStatus
}

// NewDeliveryStatus builds a Status on the delivery track.
func NewDeliveryStatus(value enums.DeliveryStatus) Status {
	return Status{Method: enums.TxMethodDelivery, Delivery: &value}
}

// NewManualStatus builds a Status on the manual track.
func NewManualStatus(value enums.ManualStatus) Status {
	return Status{Method: enums.TxMethodManual, Manual: &value}
}

// ParseStatus converts a raw track value for the given method.
func ParseStatus(method enums.TxMethod, value string) (Status, error) {
	switch method {
	case enums.TxMethodDelivery:
		parsed, err := enums.ParseDeliveryStatus(value)
		if err != nil {
			return Status{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery status %q", value))
		}
		return NewDeliveryStatus(parsed), nil
	case enums.TxMethodManual:
		parsed, err := enums.ParseManualStatus(value)
		if err != nil {
			return Status{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid manual status %q", value))
		}
		return NewManualStatus(parsed), nil
	default:
		return Status{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction method %q", method))
	}
}

func (s Status) String() string {
	switch {
	case s.Delivery != nil:
		return s.Delivery.String()
	case s.Manual != nil:
		return s.Manual.String()
	default:
		return ""
	}
}

// IsCancelled reports whether the status sits on the out-of-band terminal state.
func (s Status) IsCancelled() bool {
	switch {
	case s.Delivery != nil:
		return *s.Delivery == enums.DeliveryStatusCancelled
	case s.Manual != nil:
		return *s.Manual == enums.ManualStatusCancelled
	default:
		return false
	}
}

// IsPaid reports whether the status is exactly the PAID step.
func (s Status) IsPaid() bool {
	switch {
	case s.Delivery != nil:
		return *s.Delivery == enums.DeliveryStatusPaid
	case s.Manual != nil:
		return *s.Manual == enums.ManualStatusPaid
	default:
		return false
	}
}

// IsUnpaid reports whether the status is the initial step.
func (s Status) IsUnpaid() bool {
	switch {
	case s.Delivery != nil:
		return *s.Delivery == enums.DeliveryStatusUnpaid
	case s.Manual != nil:
		return *s.Manual == enums.ManualStatusUnpaid
	default:
		return false
	}
}

// rank positions each track value on the shared forward ladder. CANCELLED is
// out of band and has no rank.
func (s Status) rank() (int, bool) {
	if s.Delivery != nil {
		switch *s.Delivery {
		case enums.DeliveryStatusUnpaid:
			return 0, true
		case enums.DeliveryStatusPaid:
			return 1, true
		case enums.DeliveryStatusShipped:
			return 2, true
		case enums.DeliveryStatusDelivered:
			return 3, true
		}
		return 0, false
	}
	if s.Manual != nil {
		switch *s.Manual {
		case enums.ManualStatusUnpaid:
			return 0, true
		case enums.ManualStatusPaid:
			return 1, true
		case enums.ManualStatusProcessing:
			return 2, true
		case enums.ManualStatusComplete:
			return 3, true
		}
		return 0, false
	}
	return 0, false
}

const paidRank = 1

// CanTransition validates one lifecycle step. Forward moves advance exactly
// one rank on the same track; CANCELLED is reachable only from UNPAID or PAID
// and is terminal.
func CanTransition(from, to Status) error {
	if from.Method != to.Method {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "status track does not match transaction method")
	}
	if from.IsCancelled() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is cancelled")
	}
	if to.IsCancelled() {
		if from.IsUnpaid() || from.IsPaid() {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot cancel from %s", from))
	}

	fromRank, ok := from.rank()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("unknown status %s", from))
	}
	toRank, ok := to.rank()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("unknown status %s", to))
	}

	if toRank == fromRank {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("transaction already %s", from))
	}
	if toRank != fromRank+1 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move from %s to %s", from, to))
	}
	return nil
}

// EntersPaid reports whether the step moves onto the PAID rank.
func EntersPaid(from, to Status) bool {
	fromRank, okFrom := from.rank()
	toRank, okTo := to.rank()
	return okFrom && okTo && fromRank == paidRank-1 && toRank == paidRank
}

// LeavesPaid reports whether the step moves forward off the PAID rank.
func LeavesPaid(from, to Status) bool {
	fromRank, okFrom := from.rank()
	toRank, okTo := to.rank()
	return okFrom && okTo && fromRank == paidRank && toRank == paidRank+1
}
