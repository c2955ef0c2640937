package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adiwicaksana/tanisubur-backend/api/middleware"
	"github.com/adiwicaksana/tanisubur-backend/api/responses"
	"github.com/adiwicaksana/tanisubur-backend/api/validators"
	"github.com/adiwicaksana/tanisubur-backend/internal/transactions"
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

type createTransactionRequest struct {
	Method          string  `json:"method" validate:"required,oneof=DELIVERY MANUAL"`
	ShippingAddress *string `json:"shipping_address,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type cancelTransactionRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

func transactionIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "transactionId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	return id, nil
}

func parseTransactionFilters(r *http.Request) (transactions.Filters, error) {
	filters := transactions.Filters{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("method")); raw != "" {
		method, err := enums.ParseTxMethod(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method filter")
		}
		filters.Method = &method
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id filter")
		}
		filters.UserID = &userID
	}

	from, err := validators.ParseQueryTime(r, "date_from")
	if err != nil {
		return filters, err
	}
	if !from.IsZero() {
		filters.DateFrom = &from
	}
	to, err := validators.ParseQueryTime(r, "date_to")
	if err != nil {
		return filters, err
	}
	if !to.IsZero() {
		filters.DateTo = &to
	}
	return filters, nil
}

// CreateTransaction opens a checkout: prices the cart lines, books a hosted
// payment session and persists the UNPAID transaction.
func CreateTransaction(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createTransactionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseTxMethod(body.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method"))
			return
		}

		result, err := svc.Create(r.Context(), transactions.CreateInput{
			UserID:          userID,
			Method:          method,
			ShippingAddress: body.ShippingAddress,
			ActorRole:       middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListTransactions is the admin view across all customers.
func ListTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseTransactionFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListMyTransactions pages the caller's own purchase history.
func ListMyTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseTransactionFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByUser(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetTransaction returns one transaction with its items. Customers only see
// their own rows.
func GetTransaction(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := transactionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transaction, err := svc.GetByID(r.Context(), id, userID, middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transaction)
	}
}

// UpdateTransactionStatus advances a transaction one step on its track.
func UpdateTransactionStatus(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := transactionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), transactions.UpdateStatusInput{
			TransactionID: id,
			Target:        body.Status,
			ActorUserID:   userID,
			ActorRole:     middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// CancelTransaction cancels an UNPAID or PAID transaction, releasing stock and
// attempting a refund when money already moved.
func CancelTransaction(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := transactionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelTransactionRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		cancelled, err := svc.Cancel(r.Context(), transactions.CancelInput{
			TransactionID: id,
			ActorUserID:   userID,
			ActorRole:     middleware.RoleFromContext(r.Context()),
			Reason:        body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cancelled)
	}
}
