package transactions

import (
	"context"
	"testing"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/midtrans"
)

func signedNotification(orderID, transactionStatus string) NotificationInput {
	input := NotificationInput{
		OrderID:           orderID,
		StatusCode:        "200",
		GrossAmount:       "27750.00",
		TransactionStatus: transactionStatus,
		PaymentType:       "bank_transfer",
	}
	input.SignatureKey = midtrans.ComputeSignature(midtrans.SignaturePayload{
		OrderID:     input.OrderID,
		StatusCode:  input.StatusCode,
		GrossAmount: input.GrossAmount,
	}, testServerKey)
	return input
}

func TestHandleNotificationSignatureMismatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "UNPAID",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 1, PriceRupiah: 10000}},
	})

	input := signedNotification(transaction.ID, "settlement")
	input.SignatureKey = "forged"

	err := f.service.HandleNotification(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeSignatureInvalid)

	stored := f.reload(t, transaction.ID)
	if stored.DeliveryStatus == nil || *stored.DeliveryStatus != enums.DeliveryStatusUnpaid {
		t.Fatalf("forged notification must not move the lifecycle, got %+v", stored.DeliveryStatus)
	}
	if got := f.variantStock(t, variant.ID); got != 5 {
		t.Fatalf("forged notification must not touch stock, got %d", got)
	}
}

func TestHandleNotificationSettlement(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "UNPAID",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 2, PriceRupiah: 10000}},
	})

	err := f.service.HandleNotification(context.Background(), signedNotification(transaction.ID, "settlement"))
	if err != nil {
		t.Fatalf("handle notification: %v", err)
	}

	stored := f.reload(t, transaction.ID)
	if stored.DeliveryStatus == nil || *stored.DeliveryStatus != enums.DeliveryStatusPaid {
		t.Fatalf("expected PAID, got %+v", stored.DeliveryStatus)
	}
	if stored.PaymentMethod == nil || *stored.PaymentMethod != "bank_transfer" {
		t.Fatalf("expected payment method stamped, got %+v", stored.PaymentMethod)
	}
	if got := f.variantStock(t, variant.ID); got != 3 {
		t.Fatalf("expected stock reserved down to 3, got %d", got)
	}
	if updates := f.outbox.byType(enums.EventTransactionUpdated); len(updates) != 1 {
		t.Fatalf("expected one updated event, got %d", len(updates))
	}
}

func TestHandleNotificationReplayIsSilent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "UNPAID",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 2, PriceRupiah: 10000}},
	})

	input := signedNotification(transaction.ID, "settlement")
	if err := f.service.HandleNotification(context.Background(), input); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := f.service.HandleNotification(context.Background(), input); err != nil {
		t.Fatalf("replay must resolve silently: %v", err)
	}

	// Reserved once, not twice.
	if got := f.variantStock(t, variant.ID); got != 3 {
		t.Fatalf("replay must not touch stock again, got %d", got)
	}
	if updates := f.outbox.byType(enums.EventTransactionUpdated); len(updates) != 1 {
		t.Fatalf("replay must not re-emit, got %d updated events", len(updates))
	}
}

func TestHandleNotificationReplayGuardDown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "UNPAID",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 2, PriceRupiah: 10000}},
	})
	f.guard.err = pkgerrors.New(pkgerrors.CodeDependency, "redis down")

	input := signedNotification(transaction.ID, "settlement")
	if err := f.service.HandleNotification(context.Background(), input); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := f.service.HandleNotification(context.Background(), input); err != nil {
		t.Fatalf("state machine must absorb the duplicate: %v", err)
	}

	if got := f.variantStock(t, variant.ID); got != 3 {
		t.Fatalf("duplicate must not reserve twice, got %d", got)
	}
}

func TestHandleNotificationSettlementAfterCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "CANCELLED",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 2, PriceRupiah: 10000}},
	})

	err := f.service.HandleNotification(context.Background(), signedNotification(transaction.ID, "settlement"))
	if err != nil {
		t.Fatalf("late settlement must be acknowledged: %v", err)
	}

	stored := f.reload(t, transaction.ID)
	if stored.DeliveryStatus == nil || *stored.DeliveryStatus != enums.DeliveryStatusCancelled {
		t.Fatalf("cancelled is terminal, got %+v", stored.DeliveryStatus)
	}
	if got := f.variantStock(t, variant.ID); got != 5 {
		t.Fatalf("late settlement must not reserve, got %d", got)
	}
	// Money landed on a dead order; it goes straight back.
	if f.gateway.refundCalls != 1 {
		t.Fatalf("late settlement must refund the captured amount, got %d calls", f.gateway.refundCalls)
	}
	if stored.IsRefundFailed {
		t.Fatal("successful refund must not flag the row")
	}
}

func TestHandleNotificationExpireCancelsUnpaid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodManual,
		status: "UNPAID",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 2, PriceRupiah: 10000}},
	})

	err := f.service.HandleNotification(context.Background(), signedNotification(transaction.ID, "expire"))
	if err != nil {
		t.Fatalf("handle notification: %v", err)
	}

	stored := f.reload(t, transaction.ID)
	if stored.ManualStatus == nil || *stored.ManualStatus != enums.ManualStatusCancelled {
		t.Fatalf("expected CANCELLED, got %+v", stored.ManualStatus)
	}
	if stored.CancelReason == nil || *stored.CancelReason != "payment expire" {
		t.Fatalf("expected gateway reason recorded, got %+v", stored.CancelReason)
	}
	if got := f.variantStock(t, variant.ID); got != 5 {
		t.Fatalf("nothing was reserved, stock must stay, got %d", got)
	}
	if f.gateway.refundCalls != 0 {
		t.Fatal("nothing settled, refund must not run")
	}
}

func TestHandleNotificationDenyReleasesPaidStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 3)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "PAID",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 2, PriceRupiah: 10000}},
	})

	err := f.service.HandleNotification(context.Background(), signedNotification(transaction.ID, "deny"))
	if err != nil {
		t.Fatalf("handle notification: %v", err)
	}

	stored := f.reload(t, transaction.ID)
	if stored.DeliveryStatus == nil || *stored.DeliveryStatus != enums.DeliveryStatusCancelled {
		t.Fatalf("expected CANCELLED, got %+v", stored.DeliveryStatus)
	}
	if got := f.variantStock(t, variant.ID); got != 5 {
		t.Fatalf("expected reserved stock released back to 5, got %d", got)
	}
	// The money never settled on the deny path, so no refund call.
	if f.gateway.refundCalls != 0 {
		t.Fatalf("deny must not refund, got %d calls", f.gateway.refundCalls)
	}
}

func TestHandleNotificationDenyAfterShipment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "SHIPPED",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 1, PriceRupiah: 10000}},
	})

	err := f.service.HandleNotification(context.Background(), signedNotification(transaction.ID, "deny"))
	if err != nil {
		t.Fatalf("late deny must be acknowledged: %v", err)
	}

	stored := f.reload(t, transaction.ID)
	if stored.DeliveryStatus == nil || *stored.DeliveryStatus != enums.DeliveryStatusShipped {
		t.Fatalf("shipped transaction must not regress, got %+v", stored.DeliveryStatus)
	}
}

func TestHandleNotificationPendingIsNoOp(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "UNPAID",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 1, PriceRupiah: 10000}},
	})

	err := f.service.HandleNotification(context.Background(), signedNotification(transaction.ID, "pending"))
	if err != nil {
		t.Fatalf("pending must be a no-op: %v", err)
	}

	stored := f.reload(t, transaction.ID)
	if stored.DeliveryStatus == nil || *stored.DeliveryStatus != enums.DeliveryStatusUnpaid {
		t.Fatalf("pending must not move the lifecycle, got %+v", stored.DeliveryStatus)
	}
}

func TestHandleNotificationUnknownOrderAcknowledged(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.service.HandleNotification(context.Background(), signedNotification("TX-"+"does-not-exist", "settlement"))
	if err != nil {
		t.Fatalf("unknown order must be acknowledged so the gateway stops retrying: %v", err)
	}
}

func TestHandleNotificationCaptureFraudChallenge(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t)
	variant := f.seedVariant(t, 10000, 5)
	transaction := f.seedTransaction(t, user, seedTxOpts{
		method: enums.TxMethodDelivery,
		status: "UNPAID",
		items:  []models.TransactionItem{{VariantID: variant.ID, Quantity: 1, PriceRupiah: 10000}},
	})

	input := signedNotification(transaction.ID, "capture")
	input.FraudStatus = "challenge"

	if err := f.service.HandleNotification(context.Background(), input); err != nil {
		t.Fatalf("challenged capture must be a no-op: %v", err)
	}

	stored := f.reload(t, transaction.ID)
	if stored.DeliveryStatus == nil || *stored.DeliveryStatus != enums.DeliveryStatusUnpaid {
		t.Fatalf("challenged capture must not move the lifecycle, got %+v", stored.DeliveryStatus)
	}
}
