package transactions

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/internal/inventory"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/midtrans"
	"github.com/adiwicaksana/tanisubur-backend/pkg/outbox"
	"github.com/adiwicaksana/tanisubur-backend/pkg/outbox/payloads"
)

// NotificationInput is the payment notification fields the reconciler needs.
type NotificationInput struct {
	OrderID           string
	StatusCode        string
	GrossAmount       string
	SignatureKey      string
	TransactionStatus string
	FraudStatus       string
	PaymentType       string
}

// HandleNotification reconciles a gateway notification against the stored
// lifecycle. The signature is checked before anything else, replays resolve
// silently, and a valid notification for a state that already moved on is an
// acknowledged no-op so the gateway stops retrying.
func (s *service) HandleNotification(ctx context.Context, input NotificationInput) error {
	ok := midtrans.VerifySignature(midtrans.SignaturePayload{
		OrderID:     input.OrderID,
		StatusCode:  input.StatusCode,
		GrossAmount: input.GrossAmount,
	}, s.serverKey, input.SignatureKey)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeSignatureInvalid, "notification signature mismatch")
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithFields(ctx, map[string]any{
			"transaction_id":     input.OrderID,
			"transaction_status": input.TransactionStatus,
		})
	}

	// The replay guard is an optimization, not a correctness gate: the state
	// machine below already absorbs duplicates, so a broken Redis only costs
	// extra lookups.
	key := s.guard.WebhookEventKey(input.OrderID, input.TransactionStatus)
	fresh, err := s.guard.SetNX(ctx, key, 1, s.replayTTL)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(logCtx, fmt.Sprintf("webhook replay guard unavailable: %v", err))
		}
	} else if !fresh {
		if s.logg != nil {
			s.logg.Info(logCtx, "duplicate notification ignored")
		}
		return nil
	}

	transaction, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if isNotFound(err) {
			if s.logg != nil {
				s.logg.Warn(logCtx, "notification for unknown transaction acknowledged")
			}
			return nil
		}
		return err
	}

	current := currentStatus(transaction)

	switch input.TransactionStatus {
	case "settlement", "capture":
		if !isSettled(input.TransactionStatus, input.FraudStatus) {
			if s.logg != nil {
				s.logg.Info(logCtx, "capture held by fraud review, no state change")
			}
			return nil
		}
		if current.IsCancelled() {
			// Money landed on an order that no longer exists; send it back.
			if s.logg != nil {
				s.logg.Warn(logCtx, "settlement for cancelled transaction, refunding")
			}
			s.refundBestEffort(ctx, transaction.ID, "settlement after cancellation")
			return nil
		}
		if !current.IsUnpaid() {
			if s.logg != nil {
				s.logg.Info(logCtx, fmt.Sprintf("settlement for transaction already %s, acknowledged", current))
			}
			return nil
		}
		err = s.applyPayment(ctx, transaction, input.PaymentType, nil)
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			// Another writer applied the payment between the read and the
			// claim; the notification is absorbed.
			if s.logg != nil {
				s.logg.Info(logCtx, "settlement already applied concurrently, acknowledged")
			}
			return nil
		}
		return err

	case "deny", "cancel", "expire":
		return s.cancelFromGateway(ctx, logCtx, transaction.ID, input.TransactionStatus)

	default:
		// pending and anything unrecognized never move the lifecycle.
		return nil
	}
}

// cancelFromGateway closes a transaction the gateway gave up on. Money never
// settled on these paths, so stock is released where it was reserved but no
// refund is attempted. The row is re-read inside the unit of work and the
// cancel write is conditional on the step it was read at.
func (s *service) cancelFromGateway(ctx, logCtx context.Context, transactionID, gatewayStatus string) error {
	reason := "payment " + gatewayStatus

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		transaction, err := repo.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}
		current := currentStatus(transaction)
		if !current.IsUnpaid() && !current.IsPaid() {
			if s.logg != nil {
				s.logg.Warn(logCtx, fmt.Sprintf("gateway reports %s but transaction already %s, acknowledged", gatewayStatus, current))
			}
			return nil
		}

		target := cancelledStatus(transaction.Method)
		updates := statusUpdates(target)
		updates["cancel_reason"] = reason
		affected, err := repo.UpdateFieldsFromStatus(ctx, transaction.ID, current, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			if s.logg != nil {
				s.logg.Warn(logCtx, "transaction moved concurrently, gateway cancel acknowledged")
			}
			return nil
		}

		if current.IsPaid() {
			if _, err := inventory.ReleaseOnCancel(ctx, tx, transaction.Items); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionUpdated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transaction.ID,
			Version:       eventVersion,
			Data: payloads.TransactionUpdatedEvent{
				TransactionID:  transaction.ID,
				UserID:         transaction.UserID,
				Method:         transaction.Method,
				DeliveryStatus: target.Delivery,
				ManualStatus:   target.Manual,
				CancelReason:   reason,
			},
		})
	})
}
