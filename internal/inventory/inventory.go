package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwicaksana/tanisubur-backend/pkg/db/models"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

// Outcome reports what happened to one transaction item during a stock pass.
type Outcome struct {
	ItemID     string
	VariantID  uuid.UUID
	Quantity   int
	Applied    bool
	StockIssue bool
}

// StockIssueItems filters the outcomes down to the flagged ones.
func StockIssueItems(outcomes []Outcome) []Outcome {
	var flagged []Outcome
	for _, o := range outcomes {
		if o.StockIssue {
			flagged = append(flagged, o)
		}
	}
	return flagged
}

// ReserveOnPayment decrements stock for each item inside the caller's
// transaction. An item whose variant has insufficient stock is flagged
// is_stock_issue instead of failing the pass; flagged items block later
// forward transitions until an admin resolves them.
func ReserveOnPayment(ctx context.Context, tx *gorm.DB, items []models.TransactionItem) ([]Outcome, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	outcomes := make([]Outcome, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}

		res := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ? AND stock >= ?", item.VariantID, item.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
		}

		outcome := Outcome{
			ItemID:    item.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
		if res.RowsAffected > 0 {
			outcome.Applied = true
		} else {
			outcome.StockIssue = true
			err := tx.WithContext(ctx).
				Model(&models.TransactionItem{}).
				Where("id = ?", item.ID).
				UpdateColumn("is_stock_issue", true).Error
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag stock issue")
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// ReleaseOnCancel returns reserved stock for the unflagged items. Flagged
// items never decremented stock, so they are skipped. A missing variant is
// not an error; the stock simply has nowhere to go back to.
func ReleaseOnCancel(ctx context.Context, tx *gorm.DB, items []models.TransactionItem) ([]Outcome, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	outcomes := make([]Outcome, 0, len(items))
	for _, item := range items {
		outcome := Outcome{
			ItemID:    item.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
		if item.IsStockIssue || item.Quantity <= 0 {
			outcomes = append(outcomes, outcome)
			continue
		}

		res := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ?", item.VariantID).
			UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
		}
		outcome.Applied = res.RowsAffected > 0
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
