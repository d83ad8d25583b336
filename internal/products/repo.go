package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
)

// Repository reads catalog products and manages shop inventory links.
// Catalog writes live with the catalog service, not here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateInventoryItem(ctx context.Context, item *models.ShopInventoryItem) error
	ListInventoryByShop(ctx context.Context, shopID uuid.UUID, limit int) ([]models.ShopInventoryItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a product repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *repository) CreateInventoryItem(ctx context.Context, item *models.ShopInventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) ListInventoryByShop(ctx context.Context, shopID uuid.UUID, limit int) ([]models.ShopInventoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ShopInventoryItem
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
