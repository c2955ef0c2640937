package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	"github.com/adiwicaksana/tanisubur-backend/pkg/pagination"
)

// Repository defines persistence operations for the transaction tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	UpdateFields(ctx context.Context, id string, updates map[string]any) error
	UpdateFieldsFromStatus(ctx context.Context, id string, from Status, updates map[string]any) (int64, error)
	FindVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a transactions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Preload("Items")

	if filters.Method != nil {
		query = query.Where("method = ?", *filters.Method)
	}
	if filters.Status != "" {
		query = query.Where(
			r.db.Where("delivery_status = ?", filters.Status).Or("manual_status = ?", filters.Status),
		)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("parse cursor: %w", err)
	}
	if cursor != nil {
		query = query.Where(
			r.db.Where("created_at < ?", cursor.CreatedAt).
				Or("created_at = ? AND id < ?", cursor.CreatedAt, cursor.ID),
		)
	}

	var rows []models.Transaction
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, summarize(row))
	}

	return &List{
		Transactions: summaries,
		NextCursor:   nextCursor,
	}, nil
}

func (r *repository) UpdateFields(ctx context.Context, id string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateFieldsFromStatus applies updates only while the row still sits on the
// given track value. Zero affected rows means a concurrent writer moved the
// lifecycle first; the caller decides what that means.
func (r *repository) UpdateFieldsFromStatus(ctx context.Context, id string, from Status, updates map[string]any) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id)
	switch {
	case from.Delivery != nil:
		query = query.Where("delivery_status = ?", *from.Delivery)
	case from.Manual != nil:
		query = query.Where("manual_status = ?", *from.Manual)
	}
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) FindVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func summarize(row models.Transaction) Summary {
	status := ""
	switch {
	case row.DeliveryStatus != nil:
		status = row.DeliveryStatus.String()
	case row.ManualStatus != nil:
		status = row.ManualStatus.String()
	}

	hasIssue := false
	for _, item := range row.Items {
		if item.IsStockIssue {
			hasIssue = true
			break
		}
	}

	return Summary{
		ID:         row.ID,
		UserID:     row.UserID,
		UserName:   row.UserName,
		Method:     row.Method,
		Status:     status,
		TotalPrice: row.TotalPrice,
		ItemCount:  len(row.Items),
		HasIssue:   hasIssue,
		CreatedAt:  row.CreatedAt,
	}
}
