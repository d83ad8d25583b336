package shops

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
)

// Service exposes shop lookups and the fulfillment eligibility check.
type Service interface {
	WithTx(tx *gorm.DB) Service
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error)
	// CanFulfill reports whether the shop may ship or deliver orders.
	// Requires an active shop with approved KYC.
	CanFulfill(ctx context.Context, id uuid.UUID) (bool, error)
	RecordSale(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	CommissionFor(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	repo Repository
}

// NewService wires a shop service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	shop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, err
	}
	return shop, nil
}

func (s *service) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	shop, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, err
	}
	return shop, nil
}

func (s *service) CanFulfill(ctx context.Context, id uuid.UUID) (bool, error) {
	shop, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return shop.Status == enums.ShopStatusActive && shop.KYCStatus == enums.KYCStatusApproved, nil
}

func (s *service) RecordSale(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale amount must be positive")
	}
	return s.repo.AddSales(ctx, id, amount)
}

func (s *service) CommissionFor(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	shop, err := s.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return shop.CommissionRate, nil
}
