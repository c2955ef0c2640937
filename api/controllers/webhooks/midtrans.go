package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/adiwicaksana/tanisubur-backend/api/responses"
	"github.com/adiwicaksana/tanisubur-backend/internal/transactions"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
)

type notificationHandler interface {
	HandleNotification(ctx context.Context, input transactions.NotificationInput) error
}

// midtransNotification mirrors the gateway's HTTP notification body. Fields we
// don't act on are accepted and dropped.
type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

// MidtransNotification ingests payment status callbacks. Anything the handler
// settles, absorbs, or ignores is acknowledged with 200 so the gateway stops
// retrying; only verification and infrastructure failures surface as errors.
func MidtransNotification(svc notificationHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification handler unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var body midtransNotification
		if err := json.Unmarshal(payload, &body); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification"))
			return
		}

		err = svc.HandleNotification(ctx, transactions.NotificationInput{
			OrderID:           body.OrderID,
			StatusCode:        body.StatusCode,
			GrossAmount:       body.GrossAmount,
			SignatureKey:      body.SignatureKey,
			TransactionStatus: body.TransactionStatus,
			FraudStatus:       body.FraudStatus,
			PaymentType:       body.PaymentType,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
