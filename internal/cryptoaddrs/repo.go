package cryptoaddrs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

// Repository manages the platform-owned crypto receiving addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByCurrency(ctx context.Context, currency enums.CryptoCurrency) ([]models.CryptoAddress, error)
	Create(ctx context.Context, addr *models.CryptoAddress) error
	// SetActive reports whether a row was updated.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	List(ctx context.Context) ([]models.CryptoAddress, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a crypto address repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByCurrency(ctx context.Context, currency enums.CryptoCurrency) ([]models.CryptoAddress, error) {
	var rows []models.CryptoAddress
	err := r.db.WithContext(ctx).
		Where("currency = ? AND active = ?", currency, true).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Create(ctx context.Context, addr *models.CryptoAddress) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CryptoAddress{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context) ([]models.CryptoAddress, error) {
	var rows []models.CryptoAddress
	err := r.db.WithContext(ctx).Order("currency ASC, created_at ASC").Find(&rows).Error
	return rows, err
}
