package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
)

type fakeBalanceReader struct {
	amounts map[string]decimal.Decimal
}

func (f *fakeBalanceReader) Get(_ context.Context, ownerType enums.LedgerOwnerType, ownerID uuid.UUID) (decimal.Decimal, error) {
	if amount, ok := f.amounts[string(ownerType)+"/"+ownerID.String()]; ok {
		return amount, nil
	}
	return decimal.Zero, nil
}

type fakeAddressChecker struct {
	active map[enums.CryptoCurrency]bool
}

func (f *fakeAddressChecker) HasActive(_ context.Context, currency enums.CryptoCurrency) (bool, error) {
	return f.active[currency], nil
}

type fakeShopLoader struct {
	byOwner map[uuid.UUID]*models.Shop
}

func (f *fakeShopLoader) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*models.Shop, error) {
	if shop, ok := f.byOwner[ownerID]; ok {
		return shop, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
}

func newTestResolver(balances *fakeBalanceReader, addresses *fakeAddressChecker, shops *fakeShopLoader) Resolver {
	if balances == nil {
		balances = &fakeBalanceReader{}
	}
	if addresses == nil {
		addresses = &fakeAddressChecker{}
	}
	if shops == nil {
		shops = &fakeShopLoader{}
	}
	r, err := NewResolver(balances, addresses, shops)
	if err != nil {
		panic(err)
	}
	return r
}

func TestResolveBalanceSufficientFunds(t *testing.T) {
	buyerID := uuid.New()
	balances := &fakeBalanceReader{amounts: map[string]decimal.Decimal{
		"user/" + buyerID.String(): decimal.NewFromInt(200),
	}}
	resolver := newTestResolver(balances, nil, nil)

	res, err := resolver.Resolve(context.Background(), ResolveInput{
		BuyerID: buyerID,
		Method:  enums.PaymentMethodBalance,
		Total:   decimal.NewFromInt(150),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Deferred {
		t.Fatal("balance settlement should not be deferred")
	}
	if res.PayerOwnerType == nil || *res.PayerOwnerType != enums.LedgerOwnerUser {
		t.Fatalf("expected personal pool, got %v", res.PayerOwnerType)
	}
	if res.PayerOwnerID == nil || *res.PayerOwnerID != buyerID {
		t.Fatalf("expected payer %s, got %v", buyerID, res.PayerOwnerID)
	}
}

func TestResolveBalanceInsufficientFunds(t *testing.T) {
	buyerID := uuid.New()
	balances := &fakeBalanceReader{amounts: map[string]decimal.Decimal{
		"user/" + buyerID.String(): decimal.NewFromInt(50),
	}}
	resolver := newTestResolver(balances, nil, nil)

	_, err := resolver.Resolve(context.Background(), ResolveInput{
		BuyerID: buyerID,
		Method:  enums.PaymentMethodBalance,
		Total:   decimal.NewFromInt(150),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestResolveBalanceUsesShopPool(t *testing.T) {
	buyerID := uuid.New()
	shopID := uuid.New()
	balances := &fakeBalanceReader{amounts: map[string]decimal.Decimal{
		"shop/" + shopID.String(): decimal.NewFromInt(500),
	}}
	shops := &fakeShopLoader{byOwner: map[uuid.UUID]*models.Shop{
		buyerID: {ID: shopID, OwnerID: buyerID},
	}}
	resolver := newTestResolver(balances, nil, shops)

	res, err := resolver.Resolve(context.Background(), ResolveInput{
		BuyerID:        buyerID,
		Method:         enums.PaymentMethodBalance,
		Total:          decimal.NewFromInt(300),
		UseShopBalance: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PayerOwnerType == nil || *res.PayerOwnerType != enums.LedgerOwnerShop {
		t.Fatalf("expected shop pool, got %v", res.PayerOwnerType)
	}
	if res.PayerOwnerID == nil || *res.PayerOwnerID != shopID {
		t.Fatalf("expected shop payer %s, got %v", shopID, res.PayerOwnerID)
	}
}

func TestResolveCryptoRequiresConfiguredAddress(t *testing.T) {
	currency := enums.CryptoCurrencyUSDTTRC20
	resolver := newTestResolver(nil, &fakeAddressChecker{active: map[enums.CryptoCurrency]bool{}}, nil)

	_, err := resolver.Resolve(context.Background(), ResolveInput{
		BuyerID:        uuid.New(),
		Method:         enums.PaymentMethodCrypto,
		CryptoCurrency: &currency,
		Total:          decimal.NewFromInt(75),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodePaymentUnavailable) {
		t.Fatalf("expected payment unavailable, got %v", err)
	}
}

func TestResolveCryptoDefersSettlement(t *testing.T) {
	currency := enums.CryptoCurrencyBTC
	addresses := &fakeAddressChecker{active: map[enums.CryptoCurrency]bool{currency: true}}
	resolver := newTestResolver(nil, addresses, nil)

	res, err := resolver.Resolve(context.Background(), ResolveInput{
		BuyerID:        uuid.New(),
		Method:         enums.PaymentMethodCrypto,
		CryptoCurrency: &currency,
		Total:          decimal.NewFromInt(75),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Deferred {
		t.Fatal("crypto settlement should be deferred")
	}
	if res.PayerOwnerType != nil {
		t.Fatal("no payer pool should be resolved for crypto")
	}
}

func TestResolveCardAlwaysUnavailable(t *testing.T) {
	resolver := newTestResolver(nil, nil, nil)

	_, err := resolver.Resolve(context.Background(), ResolveInput{
		BuyerID: uuid.New(),
		Method:  enums.PaymentMethodCard,
		Total:   decimal.NewFromInt(10),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodePaymentUnavailable) {
		t.Fatalf("expected payment unavailable, got %v", err)
	}
}
