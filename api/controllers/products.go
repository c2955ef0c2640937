package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adiwicaksana/tanisubur-backend/api/responses"
	"github.com/adiwicaksana/tanisubur-backend/api/validators"
	"github.com/adiwicaksana/tanisubur-backend/internal/products"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

type nameRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type variantRequest struct {
	PackagingID *uuid.UUID `json:"packaging_id,omitempty"`
	WeightKg    float64    `json:"weight_kg" validate:"required,gt=0"`
	Composition string     `json:"composition,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	PriceRupiah int64      `json:"price_rupiah" validate:"required,gt=0"`
	Stock       int        `json:"stock" validate:"min=0"`
}

type createProductRequest struct {
	ProductTypeID       uuid.UUID        `json:"product_type_id" validate:"required"`
	Name                string           `json:"name" validate:"required,min=2,max=200"`
	Description         string           `json:"description,omitempty"`
	StorageInstructions string           `json:"storage_instructions,omitempty"`
	UsageInstructions   string           `json:"usage_instructions,omitempty"`
	Benefits            string           `json:"benefits,omitempty"`
	ExpiredYears        int              `json:"expired_years" validate:"min=0"`
	Variants            []variantRequest `json:"variants" validate:"required,min=1,dive"`
}

type updateProductRequest struct {
	ProductTypeID       *uuid.UUID `json:"product_type_id,omitempty"`
	Name                *string    `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description         *string    `json:"description,omitempty"`
	StorageInstructions *string    `json:"storage_instructions,omitempty"`
	UsageInstructions   *string    `json:"usage_instructions,omitempty"`
	Benefits            *string    `json:"benefits,omitempty"`
	ExpiredYears        *int       `json:"expired_years,omitempty" validate:"omitempty,min=0"`
}

type updateVariantRequest struct {
	PackagingID *uuid.UUID `json:"packaging_id,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty" validate:"omitempty,gt=0"`
	Composition *string    `json:"composition,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	PriceRupiah *int64     `json:"price_rupiah,omitempty" validate:"omitempty,gt=0"`
	Stock       *int       `json:"stock,omitempty" validate:"omitempty,min=0"`
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").WithDetails(map[string]any{"field": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func toVariantInput(body variantRequest) products.VariantInput {
	return products.VariantInput{
		PackagingID: body.PackagingID,
		WeightKg:    body.WeightKg,
		Composition: body.Composition,
		ImageURL:    body.ImageURL,
		PriceRupiah: body.PriceRupiah,
		Stock:       body.Stock,
	}
}

// CreateProductType registers a catalog category.
func CreateProductType(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body nameRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.CreateProductType(r.Context(), body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func ListProductTypes(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := svc.ListProductTypes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types)
	}
}

func DeleteProductType(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "typeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProductType(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func CreatePackaging(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body nameRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.CreatePackaging(r.Context(), body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func ListPackagings(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packagings, err := svc.ListPackagings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, packagings)
	}
}

func DeletePackaging(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "packagingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeletePackaging(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// CreateProduct registers a product with its initial variants.
func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.CreateProductInput{
			ProductTypeID:       body.ProductTypeID,
			Name:                body.Name,
			Description:         body.Description,
			StorageInstructions: body.StorageInstructions,
			UsageInstructions:   body.UsageInstructions,
			Benefits:            body.Benefits,
			ExpiredYears:        body.ExpiredYears,
		}
		for _, variant := range body.Variants {
			input.Variants = append(input.Variants, toVariantInput(variant))
		}

		created, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ListProducts serves the public catalog page.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := products.Filters{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("product_type_id")); raw != "" {
			typeID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type id"))
				return
			}
			filters.ProductTypeID = &typeID
		}

		list, err := svc.ListProducts(r.Context(), pagination.Params{
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

func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProduct(r.Context(), id, products.UpdateProductInput{
			ProductTypeID:       body.ProductTypeID,
			Name:                body.Name,
			Description:         body.Description,
			StorageInstructions: body.StorageInstructions,
			UsageInstructions:   body.UsageInstructions,
			Benefits:            body.Benefits,
			ExpiredYears:        body.ExpiredYears,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func DeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AddVariant(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body variantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.AddVariant(r.Context(), productID, toVariantInput(body))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func UpdateVariant(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateVariantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateVariant(r.Context(), id, products.UpdateVariantInput{
			PackagingID: body.PackagingID,
			WeightKg:    body.WeightKg,
			Composition: body.Composition,
			ImageURL:    body.ImageURL,
			PriceRupiah: body.PriceRupiah,
			Stock:       body.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func DeleteVariant(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteVariant(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
