package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

// CheckoutItemInput is one cart line presented at checkout. UnitPrice is
// the price at add-to-cart time; the catalog row is re-read only for the
// name/image snapshot.
type CheckoutItemInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CheckoutInput is everything the assembler needs to persist an order.
type CheckoutInput struct {
	Items          []CheckoutItemInput   `json:"items"`
	Address        types.ShippingAddress `json:"address"`
	PaymentMethod  enums.PaymentMethod   `json:"payment_method"`
	CryptoCurrency *enums.CryptoCurrency `json:"crypto_currency,omitempty"`
	UseShopBalance bool                  `json:"use_shop_balance,omitempty"`
	Shipping       decimal.Decimal       `json:"shipping"`
	Tax            decimal.Decimal       `json:"tax"`
	// AttachToShop opts purchased items into the buyer's own shop
	// inventory when the buyer is an authorized seller.
	AttachToShop bool `json:"attach_to_shop,omitempty"`
}

// CheckoutResult is returned to the buyer after a successful checkout.
type CheckoutResult struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	// DepositAddress is set for crypto checkouts.
	DepositAddress *string `json:"deposit_address,omitempty"`
}

// ItemView is one redacted order line.
type ItemView struct {
	ID        uuid.UUID       `json:"id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	ShopID    uuid.UUID       `json:"shop_id"`
	Name      string          `json:"name"`
	ImageURL  *string         `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderView is the role-redacted representation returned to callers.
// AdminNotes is only populated for admins; sellers see only their own
// shop's items.
type OrderView struct {
	ID             uuid.UUID             `json:"id"`
	OrderNumber    string                `json:"order_number"`
	BuyerID        uuid.UUID             `json:"buyer_id"`
	Status         enums.OrderStatus     `json:"status"`
	PaymentStatus  enums.PaymentStatus   `json:"payment_status"`
	PaymentMethod  enums.PaymentMethod   `json:"payment_method"`
	CryptoCurrency *enums.CryptoCurrency `json:"crypto_currency,omitempty"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	Shipping       decimal.Decimal       `json:"shipping"`
	Tax            decimal.Decimal       `json:"tax"`
	Total          decimal.Decimal       `json:"total"`
	Address        types.ShippingAddress `json:"address"`
	TrackingNumber *string               `json:"tracking_number,omitempty"`
	AdminNotes     *string               `json:"admin_notes,omitempty"`
	Items          []ItemView            `json:"items"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	ShippedAt      *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time            `json:"delivered_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// OrderSummary is the compact list representation.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Total         decimal.Decimal     `json:"total"`
	TotalItems    int                 `json:"total_items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps paginated summaries plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func summarize(rows []models.Order) []OrderSummary {
	summaries := make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		totalItems := 0
		for _, item := range row.Items {
			totalItems += item.Qty
		}
		summaries = append(summaries, OrderSummary{
			ID:            row.ID,
			OrderNumber:   row.OrderNumber,
			Status:        row.Status,
			PaymentStatus: row.PaymentStatus,
			Total:         row.Total,
			TotalItems:    totalItems,
			CreatedAt:     row.CreatedAt,
		})
	}
	return summaries
}
