package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

// Order is one purchase transaction. Totals are a frozen snapshot of cart
// state at checkout and are never recomputed after persistence. Orders are
// never physically deleted.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending_payment'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`

	// CryptoCurrency is set when PaymentMethod is crypto.
	CryptoCurrency *enums.CryptoCurrency `gorm:"column:crypto_currency;type:text"`

	// PayerOwnerType/PayerOwnerID record which ledger was debited at
	// settlement so a refund can re-credit the same pool.
	PayerOwnerType *enums.LedgerOwnerType `gorm:"column:payer_owner_type;type:text"`
	PayerOwnerID   *uuid.UUID             `gorm:"column:payer_owner_id;type:uuid"`

	Subtotal decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Shipping decimal.Decimal `gorm:"column:shipping;type:numeric(12,2);not null"`
	Tax      decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	TrackingNumber  *string               `gorm:"column:tracking_number"`
	AdminNotes      *string               `gorm:"column:admin_notes"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	PaidAt      *time.Time `gorm:"column:paid_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	RefundedAt  *time.Time `gorm:"column:refunded_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
