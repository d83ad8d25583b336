package balances

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// Repository manages persistence for balance pools and their entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID) (*models.Balance, error)
	Credit(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, amount decimal.Decimal) error
	DebitIfSufficient(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, amount decimal.Decimal) (bool, error)
	CreateEntry(ctx context.Context, entry *models.BalanceEntry) error
	ListEntriesByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.BalanceEntry, error)
	ListEntriesByOwner(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, limit int) ([]models.BalanceEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a balance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID) (*models.Balance, error) {
	var balance models.Balance
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// Credit upserts the pool row and adds the amount.
func (r *repository) Credit(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, amount decimal.Decimal) error {
	row := models.Balance{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Amount:    amount,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_type"}, {Name: "owner_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount":     gorm.Expr("balances.amount + excluded.amount"),
				"updated_at": time.Now(),
			}),
		}).
		Create(&row).Error
}

// DebitIfSufficient subtracts the amount only when the pool covers it.
// The guard runs inside the UPDATE so concurrent debits cannot overdraw.
func (r *repository) DebitIfSufficient(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Balance{}).
		Where("owner_type = ? AND owner_id = ? AND amount >= ?", ownerType, ownerID, amount).
		Updates(map[string]any{
			"amount":     gorm.Expr("amount - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.BalanceEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEntriesByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.BalanceEntry, error) {
	var entries []models.BalanceEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListEntriesByOwner(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, limit int) ([]models.BalanceEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.BalanceEntry
	if err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
