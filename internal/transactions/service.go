package transactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/internal/inventory"
	"github.com/adiwicaksana/tanisubur-backend/internal/pricing"
	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
	"github.com/adiwicaksana/tanisubur-backend/pkg/midtrans"
	"github.com/adiwicaksana/tanisubur-backend/pkg/outbox"
	"github.com/adiwicaksana/tanisubur-backend/pkg/outbox/payloads"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

const eventVersion = 1

// refundAcceptedCode is the only refund status the gateway reports as money
// returned; everything else is a soft failure flagged for follow-up.
const refundAcceptedCode = "200"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PaymentGateway is the slice of the payment provider the lifecycle needs.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req midtrans.SessionRequest) (*midtrans.Session, error)
	QueryStatus(ctx context.Context, orderID string) (*midtrans.Status, error)
	Refund(ctx context.Context, orderID, reason string) (*midtrans.RefundResult, error)
}

type ppnProvider interface {
	CurrentPercentage(ctx context.Context) (float64, error)
}

type cartProvider interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type replayGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookEventKey(orderID, transactionStatus string) string
}

// Service owns the transaction lifecycle: checkout, payment reconciliation,
// one-step status advances, and cancellation with best-effort refunds.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Transaction, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Transaction, error)
	GetByID(ctx context.Context, id string, actorUserID uuid.UUID, actorRole string) (*models.Transaction, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*List, error)
	HandleNotification(ctx context.Context, input NotificationInput) error
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	gateway PaymentGateway
	ppn     ppnProvider
	cart    cartProvider
	guard   replayGuard
	logg    *logger.Logger

	shippingFee int64
	clientURL   string
	serverKey   string
	replayTTL   time.Duration
}

// NewService builds the transaction service with all lifecycle dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	publisher outboxPublisher,
	gateway PaymentGateway,
	ppn ppnProvider,
	cart cartProvider,
	guard replayGuard,
	logg *logger.Logger,
	company config.CompanyConfig,
	midtransCfg config.MidtransConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if ppn == nil {
		return nil, fmt.Errorf("ppn provider required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart provider required")
	}
	if guard == nil {
		return nil, fmt.Errorf("replay guard required")
	}
	if strings.TrimSpace(midtransCfg.ServerKey) == "" {
		return nil, fmt.Errorf("midtrans server key required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		outbox:      publisher,
		gateway:     gateway,
		ppn:         ppn,
		cart:        cart,
		guard:       guard,
		logg:        logg,
		shippingFee: company.FlatShippingFee,
		clientURL:   company.ClientURL,
		serverKey:   midtransCfg.ServerKey,
		replayTTL:   time.Duration(company.WebhookReplayTTL) * time.Hour,
	}, nil
}

// NewTransactionID returns a fresh prefixed transaction identifier.
func NewTransactionID() string {
	return "TX-" + uuid.NewString()
}

func newItemID() string {
	return "TI-" + uuid.NewString()
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction method %q", input.Method))
	}
	if input.Method == enums.TxMethodDelivery {
		if input.ShippingAddress == nil || strings.TrimSpace(*input.ShippingAddress) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required for delivery")
		}
	}

	user, err := s.repo.FindUser(ctx, input.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}

	// Checkout prices the active cart; the request never names items.
	cartRecord, err := s.cart.Get(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if len(cartRecord.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	variantIDs := make([]uuid.UUID, 0, len(cartRecord.Items))
	for _, line := range cartRecord.Items {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive")
		}
		variantIDs = append(variantIDs, line.VariantID)
	}
	variants, err := s.repo.FindVariants(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	variantByID := make(map[uuid.UUID]models.ProductVariant, len(variants))
	for _, variant := range variants {
		variantByID[variant.ID] = variant
	}
	for _, line := range cartRecord.Items {
		if _, ok := variantByID[line.VariantID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", line.VariantID))
		}
	}

	ppnPercentage, err := s.ppn.CurrentPercentage(ctx)
	if err != nil {
		return nil, err
	}

	var shippingCost int64
	if input.Method == enums.TxMethodDelivery {
		shippingCost = s.shippingFee
	}

	lines := make([]pricing.Line, 0, len(cartRecord.Items))
	for _, line := range cartRecord.Items {
		variant := variantByID[line.VariantID]
		lines = append(lines, pricing.Line{PriceRupiah: variant.PriceRupiah, Quantity: line.Quantity})
	}
	quote, err := pricing.Compute(lines, ppnPercentage, shippingCost)
	if err != nil {
		return nil, err
	}

	transactionID := NewTransactionID()
	items := make([]models.TransactionItem, 0, len(cartRecord.Items))
	sessionItems := make([]midtrans.SessionItem, 0, len(cartRecord.Items)+2)
	for _, line := range cartRecord.Items {
		variant := variantByID[line.VariantID]
		items = append(items, models.TransactionItem{
			ID:            newItemID(),
			TransactionID: transactionID,
			VariantID:     line.VariantID,
			Quantity:      line.Quantity,
			PriceRupiah:   variant.PriceRupiah,
		})
		sessionItems = append(sessionItems, midtrans.SessionItem{
			ID:       line.VariantID.String(),
			Name:     variantDisplayName(variant),
			Price:    variant.PriceRupiah,
			Quantity: line.Quantity,
		})
	}
	// Tax and shipping travel as their own lines so the session gross
	// matches the stored total exactly.
	if quote.PPNAmount > 0 {
		sessionItems = append(sessionItems, midtrans.SessionItem{
			ID:       "PPN",
			Name:     fmt.Sprintf("PPN %.2f%%", quote.PPNPercentage),
			Price:    quote.PPNAmount,
			Quantity: 1,
		})
	}
	if quote.ShippingCost > 0 {
		sessionItems = append(sessionItems, midtrans.SessionItem{
			ID:       "SHIPPING",
			Name:     "Ongkos kirim",
			Price:    quote.ShippingCost,
			Quantity: 1,
		})
	}

	phone := ""
	if user.Phone != nil {
		phone = *user.Phone
	}
	// The Snap session opens outside the database transaction: a session
	// without a row is a harmless orphan, a row without a session is a
	// transaction nobody can pay.
	session, err := s.gateway.CreateSession(ctx, midtrans.SessionRequest{
		OrderID:       transactionID,
		GrossAmount:   quote.TotalPrice,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CustomerPhone: phone,
		Items:         sessionItems,
		FinishURL:     s.clientURL,
	})
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		ID:              transactionID,
		UserID:          user.ID,
		Method:          input.Method,
		UserName:        user.Name,
		UserEmail:       user.Email,
		UserPhone:       user.Phone,
		CleanPrice:      quote.CleanPrice,
		PPNPercentage:   quote.PPNPercentage,
		PriceWithPPN:    quote.PriceWithPPN,
		ShippingCost:    quote.ShippingCost,
		TotalPrice:      quote.TotalPrice,
		ShippingAddress: input.ShippingAddress,
		SnapToken:       &session.Token,
		SnapURL:         &session.RedirectURL,
		Items:           items,
	}
	initial := initialStatus(input.Method)
	transaction.DeliveryStatus = initial.Delivery
	transaction.ManualStatus = initial.Manual

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, transaction); err != nil {
			return err
		}
		if err := s.cart.Clear(ctx, tx, user.ID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionCreated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transactionID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: input.ActorRole},
			Version:       eventVersion,
			Data: payloads.TransactionCreatedEvent{
				TransactionID: transactionID,
				UserID:        user.ID,
				Method:        input.Method,
				TotalPrice:    quote.TotalPrice,
				ItemCount:     len(items),
			},
		})
	})
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithTransactionID(ctx, transactionID)
			s.logg.Error(logCtx, "transaction persist failed after snap session, token orphaned", err)
		}
		return nil, err
	}

	return &CreateResult{
		Transaction: transaction,
		SnapToken:   session.Token,
		SnapURL:     session.RedirectURL,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Transaction, error) {
	transaction, err := s.repo.FindByID(ctx, input.TransactionID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, err
	}

	current := currentStatus(transaction)
	target, err := ParseStatus(transaction.Method, input.Target)
	if err != nil {
		return nil, err
	}
	if target.IsCancelled() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation has its own endpoint")
	}
	if err := CanTransition(current, target); err != nil {
		return nil, err
	}

	actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}

	if EntersPaid(current, target) {
		status, err := s.gateway.QueryStatus(ctx, transaction.ID)
		if err != nil {
			return nil, err
		}
		if !isSettled(status.TransactionStatus, status.FraudStatus) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payment not settled, gateway reports %q", status.TransactionStatus))
		}
		if err := s.applyPayment(ctx, transaction, status.PaymentType, actor); err != nil {
			return nil, err
		}
		return s.repo.FindByID(ctx, transaction.ID)
	}

	// The snapshot above only routed the request. State is re-checked inside
	// the unit of work and the write is conditional on the current step, so a
	// concurrent writer makes the loser abort instead of double-applying.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		fresh, err := repo.FindByID(ctx, transaction.ID)
		if err != nil {
			return err
		}
		current := currentStatus(fresh)
		if err := CanTransition(current, target); err != nil {
			return err
		}
		// Fulfillment cannot start while any line carries an unresolved
		// stock issue; the admin resolves the flag first.
		if LeavesPaid(current, target) {
			for _, item := range fresh.Items {
				if item.IsStockIssue {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction has unresolved stock issues")
				}
			}
		}
		affected, err := repo.UpdateFieldsFromStatus(ctx, fresh.ID, current, statusUpdates(target))
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction moved to another state")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionUpdated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transaction.ID,
			Actor:         actor,
			Version:       eventVersion,
			Data: payloads.TransactionUpdatedEvent{
				TransactionID:  transaction.ID,
				UserID:         transaction.UserID,
				Method:         transaction.Method,
				DeliveryStatus: target.Delivery,
				ManualStatus:   target.Manual,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, transaction.ID)
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Transaction, error) {
	transaction, err := s.repo.FindByID(ctx, input.TransactionID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, err
	}
	if input.ActorRole == enums.UserRoleCustomer.String() && transaction.UserID != input.ActorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot cancel another user's transaction")
	}

	target := cancelledStatus(transaction.Method)
	if err := CanTransition(currentStatus(transaction), target); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Reason)
	actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}

	var wasPaid bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		fresh, err := repo.FindByID(ctx, transaction.ID)
		if err != nil {
			return err
		}
		current := currentStatus(fresh)
		if err := CanTransition(current, target); err != nil {
			return err
		}

		updates := statusUpdates(target)
		if reason != "" {
			updates["cancel_reason"] = reason
		}
		affected, err := repo.UpdateFieldsFromStatus(ctx, fresh.ID, current, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction moved to another state")
		}

		wasPaid = current.IsPaid()
		if wasPaid {
			if _, err := inventory.ReleaseOnCancel(ctx, tx, fresh.Items); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionUpdated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transaction.ID,
			Actor:         actor,
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
	if err != nil {
		return nil, err
	}

	// Refund once the cancellation is durable. A failed refund never undoes
	// the cancel: the row is flagged for manual follow-up instead. The gateway
	// decides whether money moved: a settlement that has not reconciled yet
	// leaves the row UNPAID, but the customer was still charged.
	if wasPaid || s.settledAtGateway(ctx, transaction.ID) {
		s.refundBestEffort(ctx, transaction.ID, reason)
	}

	return s.repo.FindByID(ctx, transaction.ID)
}

// settledAtGateway asks the gateway whether money was captured for the order.
// An unreachable gateway reads as not settled; a late settlement notification
// on the cancelled row still triggers the refund.
func (s *service) settledAtGateway(ctx context.Context, transactionID string) bool {
	status, err := s.gateway.QueryStatus(ctx, transactionID)
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithTransactionID(ctx, transactionID)
			s.logg.Warn(logCtx, fmt.Sprintf("could not confirm gateway state on cancel: %v", err))
		}
		return false
	}
	return isSettled(status.TransactionStatus, status.FraudStatus)
}

func (s *service) refundBestEffort(ctx context.Context, transactionID, reason string) {
	res, refundErr := s.gateway.Refund(ctx, transactionID, reason)
	if refundErr == nil {
		if res != nil && res.StatusCode == refundAcceptedCode {
			return
		}
		code := "unknown"
		if res != nil {
			code = res.StatusCode
		}
		refundErr = fmt.Errorf("gateway rejected refund with status %s", code)
	}
	flagErr := s.repo.UpdateFields(ctx, transactionID, map[string]any{"is_refund_failed": true})
	if s.logg != nil {
		logCtx := s.logg.WithTransactionID(ctx, transactionID)
		s.logg.Error(logCtx, "refund failed, transaction flagged for manual follow-up",
			multierr.Append(refundErr, flagErr))
	}
}

func (s *service) GetByID(ctx context.Context, id string, actorUserID uuid.UUID, actorRole string) (*models.Transaction, error) {
	transaction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, err
	}
	if actorRole == enums.UserRoleCustomer.String() && transaction.UserID != actorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot view another user's transaction")
	}
	return transaction, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	return s.repo.List(ctx, params, filters)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) (*List, error) {
	filters.UserID = &userID
	return s.repo.List(ctx, params, filters)
}

// applyPayment moves an UNPAID transaction onto the PAID rank: reserve stock,
// stamp the payment method, and queue the lifecycle events, all in one unit.
// The PAID write is conditional on the row still being UNPAID: the claim comes
// before the stock reserve so a racing writer rolls back without decrementing.
func (s *service) applyPayment(ctx context.Context, transaction *models.Transaction, paymentType string, actor *outbox.ActorRef) error {
	target := paidStatus(transaction.Method)
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := statusUpdates(target)
		if paymentType != "" {
			updates["payment_method"] = paymentType
		}
		affected, err := repo.UpdateFieldsFromStatus(ctx, transaction.ID, initialStatus(transaction.Method), updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is no longer UNPAID")
		}

		outcomes, err := inventory.ReserveOnPayment(ctx, tx, transaction.Items)
		if err != nil {
			return err
		}

		if issues := inventory.StockIssueItems(outcomes); len(issues) > 0 {
			variantIDs := make([]uuid.UUID, 0, len(issues))
			for _, issue := range issues {
				variantIDs = append(variantIDs, issue.VariantID)
			}
			err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockIssueFlagged,
				AggregateType: enums.AggregateTransaction,
				AggregateID:   transaction.ID,
				Actor:         actor,
				Version:       eventVersion,
				Data: payloads.StockIssueFlaggedEvent{
					TransactionID: transaction.ID,
					VariantIDs:    variantIDs,
					FlaggedAt:     time.Now().UTC(),
				},
			})
			if err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionUpdated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transaction.ID,
			Actor:         actor,
			Version:       eventVersion,
			Data: payloads.TransactionUpdatedEvent{
				TransactionID:  transaction.ID,
				UserID:         transaction.UserID,
				Method:         transaction.Method,
				DeliveryStatus: target.Delivery,
				ManualStatus:   target.Manual,
			},
		})
	})
}

func currentStatus(transaction *models.Transaction) Status {
	return Status{
		Method:   transaction.Method,
		Delivery: transaction.DeliveryStatus,
		Manual:   transaction.ManualStatus,
	}
}

func initialStatus(method enums.TxMethod) Status {
	if method == enums.TxMethodManual {
		return NewManualStatus(enums.ManualStatusUnpaid)
	}
	return NewDeliveryStatus(enums.DeliveryStatusUnpaid)
}

func paidStatus(method enums.TxMethod) Status {
	if method == enums.TxMethodManual {
		return NewManualStatus(enums.ManualStatusPaid)
	}
	return NewDeliveryStatus(enums.DeliveryStatusPaid)
}

func cancelledStatus(method enums.TxMethod) Status {
	if method == enums.TxMethodManual {
		return NewManualStatus(enums.ManualStatusCancelled)
	}
	return NewDeliveryStatus(enums.DeliveryStatusCancelled)
}

// statusUpdates writes the populated track and nulls the other, keeping the
// row consistent with its method check constraint.
func statusUpdates(target Status) map[string]any {
	return map[string]any{
		"delivery_status": target.Delivery,
		"manual_status":   target.Manual,
	}
}

// isSettled reports whether the gateway state counts as money captured.
func isSettled(transactionStatus, fraudStatus string) bool {
	switch transactionStatus {
	case "settlement":
		return true
	case "capture":
		return fraudStatus == "" || fraudStatus == "accept"
	default:
		return false
	}
}

func variantDisplayName(variant models.ProductVariant) string {
	name := ""
	if variant.Product != nil {
		name = variant.Product.Name
	}
	if variant.WeightKg > 0 {
		if name != "" {
			name += " "
		}
		name += fmt.Sprintf("%gkg", variant.WeightKg)
	}
	if name == "" {
		name = variant.ID.String()
	}
	return name
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
