package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// OrderCreatedEvent signals a freshly settled checkout.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Total         decimal.Decimal     `json:"total"`
	ShopIDs       []uuid.UUID         `json:"shop_ids"`
}

// OrderPaidEvent is emitted once payment is confirmed and funds moved.
type OrderPaidEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Total         decimal.Decimal     `json:"total"`
	PaidAt        time.Time           `json:"paid_at"`
}

// OrderStateChangedEvent reports a lifecycle transition.
type OrderStateChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	BuyerID     uuid.UUID         `json:"buyer_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	ActorRole   enums.ActorRole   `json:"actor_role"`
}

// OrderCancelledEvent is emitted when an order is cancelled before payment.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderRefundedEvent carries the refund outcome for a paid order.
type OrderRefundedEvent struct {
	OrderID              uuid.UUID           `json:"order_id"`
	OrderNumber          string              `json:"order_number"`
	BuyerID              uuid.UUID           `json:"buyer_id"`
	PaymentMethod        enums.PaymentMethod `json:"payment_method"`
	Amount               decimal.Decimal     `json:"amount"`
	RefundedAt           time.Time           `json:"refunded_at"`
	ManualReconciliation bool                `json:"manual_reconciliation,omitempty"`
}

// ShopCreditedEvent reports a sale credit applied to a shop balance.
type ShopCreditedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	ShopID     uuid.UUID       `json:"shop_id"`
	GrossSale  decimal.Decimal `json:"gross_sale"`
	Commission decimal.Decimal `json:"commission"`
	NetCredit  decimal.Decimal `json:"net_credit"`
	CreditedAt time.Time       `json:"credited_at"`
}
