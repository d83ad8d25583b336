package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
)

type balanceReader interface {
	Get(ctx context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID) (decimal.Decimal, error)
}

type addressChecker interface {
	HasActive(ctx context.Context, currency enums.CryptoCurrency) (bool, error)
}

type shopLoader interface {
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error)
}

// Resolver decides and validates the payment mechanism for a checkout.
// It never mutates balances.
type Resolver interface {
	Resolve(ctx context.Context, input ResolveInput) (*Resolution, error)
}

// ResolveInput captures the checkout facts the resolver needs.
type ResolveInput struct {
	BuyerID        uuid.UUID
	Method         enums.PaymentMethod
	CryptoCurrency *enums.CryptoCurrency
	Total          decimal.Decimal
	// UseShopBalance pays from the buyer's shop pool instead of the
	// personal pool.
	UseShopBalance bool
}

// Resolution states which ledger will be debited, or that settlement is
// deferred to admin verification for crypto.
type Resolution struct {
	Method         enums.PaymentMethod
	CryptoCurrency *enums.CryptoCurrency

	// PayerOwnerType/PayerOwnerID are set for balance settlements only.
	PayerOwnerType *enums.LedgerOwnerType
	PayerOwnerID   *uuid.UUID

	// Deferred is true when no funds move at checkout.
	Deferred bool
}

type resolver struct {
	balances  balanceReader
	addresses addressChecker
	shops     shopLoader
}

// NewResolver wires a payment method resolver.
func NewResolver(balances balanceReader, addresses addressChecker, shops shopLoader) (Resolver, error) {
	if balances == nil {
		return nil, fmt.Errorf("balance reader required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address checker required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop loader required")
	}
	return &resolver{balances: balances, addresses: addresses, shops: shops}, nil
}

func (r *resolver) Resolve(ctx context.Context, input ResolveInput) (*Resolution, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", input.Method)
	}
	if input.Total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total must be non-negative")
	}

	switch input.Method {
	case enums.PaymentMethodBalance:
		return r.resolveBalance(ctx, input)
	case enums.PaymentMethodCrypto:
		return r.resolveCrypto(ctx, input)
	case enums.PaymentMethodCard:
		// Selectable but reserved. Reject rather than silently succeed.
		return nil, pkgerrors.New(pkgerrors.CodePaymentUnavailable, "card payments are not available")
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported payment method %q", input.Method)
	}
}

func (r *resolver) resolveBalance(ctx context.Context, input ResolveInput) (*Resolution, error) {
	ownerType := enums.LedgerOwnerUser
	ownerID := input.BuyerID
	if input.UseShopBalance {
		shop, err := r.shops.GetByOwnerID(ctx, input.BuyerID)
		if err != nil {
			return nil, err
		}
		ownerType = enums.LedgerOwnerShop
		ownerID = shop.ID
	}

	available, err := r.balances.Get(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	if available.LessThan(input.Total) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInsufficientFunds,
			"balance %s cannot cover %s", available.StringFixed(2), input.Total.StringFixed(2))
	}

	return &Resolution{
		Method:         enums.PaymentMethodBalance,
		PayerOwnerType: &ownerType,
		PayerOwnerID:   &ownerID,
	}, nil
}

func (r *resolver) resolveCrypto(ctx context.Context, input ResolveInput) (*Resolution, error) {
	if input.CryptoCurrency == nil || !input.CryptoCurrency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "crypto currency required")
	}
	ok, err := r.addresses.HasActive(ctx, *input.CryptoCurrency)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodePaymentUnavailable,
			"no receiving address configured for %s", *input.CryptoCurrency)
	}
	return &Resolution{
		Method:         enums.PaymentMethodCrypto,
		CryptoCurrency: input.CryptoCurrency,
		Deferred:       true,
	}, nil
}
