package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical buyer/seller identity. Balances live in the
// balances table, never on this row.
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string     `gorm:"type:text;not null;uniqueIndex"`
	DisplayName string     `gorm:"column:display_name;not null"`
	Role        string     `gorm:"column:role;not null;default:'buyer'"`
	CanSell     bool       `gorm:"column:can_sell;not null;default:false"`
	ShopID      *uuid.UUID `gorm:"column:shop_id;type:uuid"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
