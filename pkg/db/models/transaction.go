package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
)

// Transaction is one checkout event. Exactly one of DeliveryStatus and
// ManualStatus is populated, matching Method; all writes go through the
// transactions package so the pairing cannot drift.
type Transaction struct {
	ID     string         `gorm:"column:id;primaryKey" json:"id"` // TX-<uuid>
	UserID uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Method enums.TxMethod `gorm:"column:method;type:text;not null" json:"method"`

	DeliveryStatus *enums.DeliveryStatus `gorm:"column:delivery_status;type:text" json:"delivery_status,omitempty"`
	ManualStatus   *enums.ManualStatus   `gorm:"column:manual_status;type:text" json:"manual_status,omitempty"`

	// Customer snapshot, copied at creation so history survives user edits.
	UserName  string  `gorm:"column:user_name;not null" json:"user_name"`
	UserEmail string  `gorm:"column:user_email;not null" json:"user_email"`
	UserPhone *string `gorm:"column:user_phone" json:"user_phone,omitempty"`

	// Monetary snapshot, rupiah. PPN percentage is frozen per transaction.
	CleanPrice    int64   `gorm:"column:clean_price;not null" json:"clean_price"`
	PPNPercentage float64 `gorm:"column:ppn_percentage;not null" json:"ppn_percentage"`
	PriceWithPPN  int64   `gorm:"column:price_with_ppn;not null" json:"price_with_ppn"`
	ShippingCost  int64   `gorm:"column:shipping_cost;not null;default:0" json:"shipping_cost"`
	TotalPrice    int64   `gorm:"column:total_price;not null" json:"total_price"`

	ShippingAddress *string `gorm:"column:shipping_address" json:"shipping_address,omitempty"`

	SnapToken     *string `gorm:"column:snap_token" json:"snap_token,omitempty"`
	SnapURL       *string `gorm:"column:snap_url" json:"snap_url,omitempty"`
	PaymentMethod *string `gorm:"column:payment_method" json:"payment_method,omitempty"`

	CancelReason   *string `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	IsRefundFailed bool    `gorm:"column:is_refund_failed;not null;default:false" json:"is_refund_failed"`

	Items     []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
