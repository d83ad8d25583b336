package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// OrderTransition is one immutable audit row appended for every status or
// payment status change, sufficient to reconstruct who moved an order when.
type OrderTransition struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	FromStatus enums.OrderStatus `gorm:"column:from_status;type:order_status;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:order_status;not null"`

	FromPaymentStatus enums.PaymentStatus `gorm:"column:from_payment_status;type:payment_status;not null"`
	ToPaymentStatus   enums.PaymentStatus `gorm:"column:to_payment_status;type:payment_status;not null"`

	ActorID   uuid.UUID       `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole enums.ActorRole `gorm:"column:actor_role;type:text;not null"`
	Metadata  json.RawMessage `gorm:"column:metadata;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
