package controllers

import (
	"net/http"

	"github.com/adiwicaksana/tanisubur-backend/api/responses"
	"github.com/adiwicaksana/tanisubur-backend/api/validators"
	"github.com/adiwicaksana/tanisubur-backend/internal/reports"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
)

func reportPeriod(r *http.Request) (reports.Period, error) {
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return reports.Period{}, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return reports.Period{}, err
	}
	return reports.Period{From: from, To: to}, nil
}

// SalesSummaryReport aggregates paid transactions in the requested window.
func SalesSummaryReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := reportPeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.SalesSummary(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// StatusBreakdownReport counts transactions per method and lifecycle stage.
func StatusBreakdownReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := reportPeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		breakdown, err := svc.StatusBreakdown(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, breakdown)
	}
}

// TopVariantsReport ranks variants by paid quantity.
func TopVariantsReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := reportPeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.TopVariants(r.Context(), period, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
