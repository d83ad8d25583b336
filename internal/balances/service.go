package balances

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

// Service moves money between balance pools. Every mutation writes a
// matching entry row so a pool is always reconstructible from its history.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Get(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID) (decimal.Decimal, error)
	Debit(ctx context.Context, input MutationInput) error
	Credit(ctx context.Context, input MutationInput) error
	EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.BalanceEntry, error)
	History(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, limit int) ([]models.BalanceEntry, error)
}

// MutationInput captures one balance movement and its causal order.
type MutationInput struct {
	OwnerType enums.LedgerOwnerType
	OwnerID   uuid.UUID
	OrderID   uuid.UUID
	Type      enums.LedgerEntryType
	Amount    decimal.Decimal
}

type service struct {
	repo Repository
}

// NewService wires a balance service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("balance repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Get(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID) (decimal.Decimal, error) {
	if !ownerType.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid owner type")
	}
	if ownerID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	balance, err := s.repo.Get(ctx, ownerType, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A pool with no history is a zero pool, not an error.
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance.Amount, nil
}

// Debit withdraws funds, failing with INSUFFICIENT_FUNDS when the pool
// cannot cover the amount. No entry is written on failure.
func (s *service) Debit(ctx context.Context, input MutationInput) error {
	if err := validateMutation(input); err != nil {
		return err
	}
	ok, err := s.repo.DebitIfSufficient(ctx, input.OwnerType, input.OwnerID, input.Amount)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeInsufficientFunds, "balance cannot cover %s", input.Amount.StringFixed(2))
	}
	entry := &models.BalanceEntry{
		ID:        uuid.New(),
		OwnerType: input.OwnerType,
		OwnerID:   input.OwnerID,
		OrderID:   input.OrderID,
		Type:      input.Type,
		Amount:    input.Amount.Neg(),
	}
	return s.repo.CreateEntry(ctx, entry)
}

// Credit deposits funds, creating the pool row when absent.
func (s *service) Credit(ctx context.Context, input MutationInput) error {
	if err := validateMutation(input); err != nil {
		return err
	}
	if err := s.repo.Credit(ctx, input.OwnerType, input.OwnerID, input.Amount); err != nil {
		return err
	}
	entry := &models.BalanceEntry{
		ID:        uuid.New(),
		OwnerType: input.OwnerType,
		OwnerID:   input.OwnerID,
		OrderID:   input.OrderID,
		Type:      input.Type,
		Amount:    input.Amount,
	}
	return s.repo.CreateEntry(ctx, entry)
}

func (s *service) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.BalanceEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.ListEntriesByOrderID(ctx, orderID)
}

func (s *service) History(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, limit int) ([]models.BalanceEntry, error) {
	if !ownerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid owner type")
	}
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	return s.repo.ListEntriesByOwner(ctx, ownerType, ownerID, limit)
}

func validateMutation(input MutationInput) error {
	if !input.OwnerType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid owner type")
	}
	if input.OwnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid entry type")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}
