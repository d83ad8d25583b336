package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// Notification is one user-facing message produced from a settlement event.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index"`
	Kind        enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	OrderID     *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Title       string                 `gorm:"column:title;not null"`
	Body        string                 `gorm:"column:body;not null"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
