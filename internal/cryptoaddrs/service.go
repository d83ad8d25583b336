package cryptoaddrs

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
)

// Service manages the admin-configured receiving addresses and picks one
// for a checkout.
type Service interface {
	// PickAddress returns an active receiving address for the currency.
	// Returns PAYMENT_UNAVAILABLE when none is configured.
	PickAddress(ctx context.Context, currency enums.CryptoCurrency) (*models.CryptoAddress, error)
	HasActive(ctx context.Context, currency enums.CryptoCurrency) (bool, error)
	Create(ctx context.Context, input CreateAddressInput) (*models.CryptoAddress, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context) ([]models.CryptoAddress, error)
}

// CreateAddressInput captures a new receiving address.
type CreateAddressInput struct {
	Currency enums.CryptoCurrency
	Address  string
	Label    *string
}

type service struct {
	repo Repository
}

// NewService wires a crypto address service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("crypto address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) PickAddress(ctx context.Context, currency enums.CryptoCurrency) (*models.CryptoAddress, error) {
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid crypto currency")
	}
	rows, err := s.repo.FindActiveByCurrency(ctx, currency)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodePaymentUnavailable, "no receiving address configured for %s", currency)
	}
	// Spread deposits across the configured addresses.
	picked := rows[rand.IntN(len(rows))]
	return &picked, nil
}

func (s *service) HasActive(ctx context.Context, currency enums.CryptoCurrency) (bool, error) {
	if !currency.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid crypto currency")
	}
	rows, err := s.repo.FindActiveByCurrency(ctx, currency)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *service) Create(ctx context.Context, input CreateAddressInput) (*models.CryptoAddress, error) {
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid crypto currency")
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address required")
	}
	row := &models.CryptoAddress{
		ID:       uuid.New(),
		Currency: input.Currency,
		Address:  address,
		Label:    input.Label,
		Active:   true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	applied, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.CryptoAddress, error) {
	return s.repo.List(ctx)
}
