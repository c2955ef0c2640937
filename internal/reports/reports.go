package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

// Period bounds a report query. Zero values mean unbounded.
type Period struct {
	From time.Time
	To   time.Time
}

// SalesSummary aggregates paid transactions in a period.
type SalesSummary struct {
	TransactionCount int64 `json:"transaction_count"`
	TotalRevenue     int64 `json:"total_revenue"`
	TotalPPN         int64 `json:"total_ppn"`
	TotalShipping    int64 `json:"total_shipping"`
}

// StatusCount is one row of the lifecycle breakdown.
type StatusCount struct {
	Method string `json:"method"`
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// TopVariant is one best-selling variant row.
type TopVariant struct {
	VariantID    uuid.UUID `json:"variant_id"`
	ProductName  string    `json:"product_name"`
	QuantitySold int64     `json:"quantity_sold"`
	Revenue      int64     `json:"revenue"`
}

// Service answers admin reporting queries with SQL aggregation. Revenue only
// counts transactions that reached PAID; stock-issue lines still count since
// the money was captured.
type Service interface {
	SalesSummary(ctx context.Context, period Period) (*SalesSummary, error)
	StatusBreakdown(ctx context.Context, period Period) ([]StatusCount, error)
	TopVariants(ctx context.Context, period Period, limit int) ([]TopVariant, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds the reports service.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &service{db: db}, nil
}

// paidCondition matches any transaction at or past the PAID rank on either track.
const paidCondition = `(delivery_status IN ('PAID','SHIPPED','DELIVERED') OR manual_status IN ('PAID','PROCESSING','COMPLETE'))`

func (s *service) SalesSummary(ctx context.Context, period Period) (*SalesSummary, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Table("transactions").
		Select(`COUNT(*) AS transaction_count,
			COALESCE(SUM(total_price), 0) AS total_revenue,
			COALESCE(SUM(price_with_ppn - clean_price), 0) AS total_ppn,
			COALESCE(SUM(shipping_cost), 0) AS total_shipping`).
		Where(paidCondition)
	query = applyPeriod(query, period)

	var summary SalesSummary
	if err := query.Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *service) StatusBreakdown(ctx context.Context, period Period) ([]StatusCount, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Table("transactions").
		Select(`method, COALESCE(delivery_status, manual_status) AS status, COUNT(*) AS count`).
		Group("method").
		Group("status").
		Order("method").
		Order("status")
	query = applyPeriod(query, period)

	var rows []StatusCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) TopVariants(ctx context.Context, period Period, limit int) ([]TopVariant, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := s.db.WithContext(ctx).
		Table("transaction_items").
		Select(`transaction_items.variant_id,
			COALESCE(products.name, '') AS product_name,
			SUM(transaction_items.quantity) AS quantity_sold,
			SUM(transaction_items.quantity * transaction_items.price_rupiah) AS revenue`).
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Joins("LEFT JOIN product_variants ON product_variants.id = transaction_items.variant_id").
		Joins("LEFT JOIN products ON products.id = product_variants.product_id").
		Where(paidCondition).
		Group("transaction_items.variant_id").
		Group("products.name").
		Order("quantity_sold DESC").
		Limit(limit)
	if !period.From.IsZero() {
		query = query.Where("transactions.created_at >= ?", period.From)
	}
	if !period.To.IsZero() {
		query = query.Where("transactions.created_at <= ?", period.To)
	}

	var rows []TopVariant
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func applyPeriod(query *gorm.DB, period Period) *gorm.DB {
	if !period.From.IsZero() {
		query = query.Where("created_at >= ?", period.From)
	}
	if !period.To.IsZero() {
		query = query.Where("created_at <= ?", period.To)
	}
	return query
}

func validatePeriod(period Period) error {
	if !period.From.IsZero() && !period.To.IsZero() && period.To.Before(period.From) {
		return pkgerrors.New(pkgerrors.CodeValidation, "period end precedes its start")
	}
	return nil
}
