package controllers

import (
	"net/http"

	"github.com/adiwicaksana/tanisubur-backend/api/responses"
	"github.com/adiwicaksana/tanisubur-backend/api/validators"
	"github.com/adiwicaksana/tanisubur-backend/internal/ppn"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
)

type setPPNRequest struct {
	Percentage float64 `json:"percentage" validate:"min=0,max=100"`
}

// GetPPN returns the active tax percentage.
func GetPPN(svc ppn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, err := svc.Current(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, current)
	}
}

// SetPPN appends a new tax percentage; open transactions keep the rate they
// were priced with.
func SetPPN(svc ppn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body setPPNRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.SetPercentage(r.Context(), body.Percentage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// PPNHistory lists past tax configurations, newest first.
func PPNHistory(svc ppn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := svc.History(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
