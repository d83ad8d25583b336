package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// Balance is one monetary pool addressed by (owner_type, owner_id).
// Personal and shop balances are distinct rows, never a shared column.
type Balance struct {
	OwnerType enums.LedgerOwnerType `gorm:"column:owner_type;type:text;primaryKey"`
	OwnerID   uuid.UUID             `gorm:"column:owner_id;type:uuid;primaryKey"`
	Amount    decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null;default:0"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Balance) TableName() string {
	return "balances"
}

// BalanceEntry records one balance mutation together with its causal order.
// Amount is signed: debits are negative, credits positive.
type BalanceEntry struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerType enums.LedgerOwnerType `gorm:"column:owner_type;type:text;not null"`
	OwnerID   uuid.UUID             `gorm:"column:owner_id;type:uuid;not null"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	Type      enums.LedgerEntryType `gorm:"column:type;type:text;not null"`
	Amount    decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
