package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one product line within an order. Name, price, and image are
// immutable copies frozen at order time; ProductID may dangle if the catalog
// product is later removed, and the order must still reconstruct fully.
type OrderItem struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null"`

	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid"`
	// ShopID is denormalized from the product at order time so seller-scoped
	// visibility survives catalog deletions.
	ShopID uuid.UUID `gorm:"column:shop_id;type:uuid;not null"`

	Name      string          `gorm:"column:name;not null"`
	ImageURL  *string         `gorm:"column:image_url"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Qty       int             `gorm:"column:qty;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
