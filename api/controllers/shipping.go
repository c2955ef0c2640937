package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/adiwicaksana/tanisubur-backend/api/responses"
	"github.com/adiwicaksana/tanisubur-backend/internal/shipping"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
)

// ShippingProvinces lists delivery provinces.
func ShippingProvinces(lookup shipping.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provinces, err := lookup.Provinces(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, provinces)
	}
}

// ShippingCities lists cities within a province.
func ShippingCities(lookup shipping.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cities, err := lookup.Cities(r.Context(), strings.TrimSpace(r.URL.Query().Get("province")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cities)
	}
}

// ShippingCost quotes the delivery fee for a destination and cart weight.
func ShippingCost(lookup shipping.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		destination := strings.TrimSpace(r.URL.Query().Get("destination"))
		rawWeight := strings.TrimSpace(r.URL.Query().Get("weight_kg"))
		if rawWeight == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "weight_kg is required"))
			return
		}
		weight, err := strconv.ParseFloat(rawWeight, 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "weight_kg must be numeric"))
			return
		}

		quote, err := lookup.Cost(r.Context(), destination, weight)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
