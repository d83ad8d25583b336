package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// CryptoAddress is a platform-owned receiving address for one
// currency/network pair. Configured by administrators, never per shop.
type CryptoAddress struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Currency  enums.CryptoCurrency `gorm:"column:currency;type:text;not null"`
	Address   string               `gorm:"column:address;not null"`
	Label     *string              `gorm:"column:label"`
	Active    bool                 `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
