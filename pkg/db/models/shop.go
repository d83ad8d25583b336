package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// Shop is a seller's storefront. Its balance pool is a distinct ledger from
// the owner's personal balance and lives in the balances table.
type Shop struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID        `gorm:"column:owner_id;type:uuid;not null"`
	Name           string           `gorm:"column:name;not null"`
	Status         enums.ShopStatus `gorm:"column:status;type:shop_status;not null;default:'pending'"`
	KYCStatus      enums.KYCStatus  `gorm:"column:kyc_status;type:kyc_status;not null;default:'pending_verification'"`
	Level          int              `gorm:"column:level;not null;default:1"`
	TotalSales     decimal.Decimal  `gorm:"column:total_sales;type:numeric(14,2);not null;default:0"`
	CommissionRate decimal.Decimal  `gorm:"column:commission_rate;type:numeric(5,4);not null;default:0.05"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
