package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	"github.com/mateoquiros/vendaria-backend/pkg/pagination"
)

// Repository manages persistence for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, number string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListByShop(ctx context.Context, shopID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListPendingPaymentBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)

	// SetAdminNotes replaces the operator notes on the order. A nil value
	// clears them. Returns false when no order matched.
	SetAdminNotes(ctx context.Context, id uuid.UUID, notes *string) (bool, error)

	// UpdateStatusIf applies the updates only when the order is still in
	// fromStatus, returning false when another writer moved it first.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus enums.OrderStatus, updates map[string]any) (bool, error)
}
