package settlement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
)

// TransitionRepository appends and reads the order audit trail.
type TransitionRepository interface {
	WithTx(tx *gorm.DB) TransitionRepository
	Create(ctx context.Context, transition *models.OrderTransition) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderTransition, error)
}

type transitionRepository struct {
	db *gorm.DB
}

// NewTransitionRepository returns an audit repository bound to the database.
func NewTransitionRepository(db *gorm.DB) TransitionRepository {
	return &transitionRepository{db: db}
}

func (r *transitionRepository) WithTx(tx *gorm.DB) TransitionRepository {
	if tx == nil {
		return r
	}
	return &transitionRepository{db: tx}
}

func (r *transitionRepository) Create(ctx context.Context, transition *models.OrderTransition) error {
	return r.db.WithContext(ctx).Create(transition).Error
}

func (r *transitionRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderTransition, error) {
	var rows []models.OrderTransition
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
