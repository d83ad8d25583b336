package cryptoaddrs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
)

func setupAddressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS crypto_addresses (
  id TEXT PRIMARY KEY,
  currency TEXT NOT NULL,
  address TEXT NOT NULL,
  label TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func newAddressService(t *testing.T) Service {
	t.Helper()
	db := setupAddressTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestCreateAddressValidatesAndActivates(t *testing.T) {
	svc := newAddressService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateAddressInput{Currency: "doge", Address: "x"})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.Create(ctx, CreateAddressInput{Currency: enums.CryptoCurrencyUSDTTRC20, Address: "   "})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)

	created, err := svc.Create(ctx, CreateAddressInput{
		Currency: enums.CryptoCurrencyUSDTTRC20,
		Address:  "  TVdeposit123  ",
	})
	require.NoError(t, err)
	require.Equal(t, "TVdeposit123", created.Address)
	require.True(t, created.Active)

	picked, err := svc.PickAddress(ctx, enums.CryptoCurrencyUSDTTRC20)
	require.NoError(t, err)
	require.Equal(t, created.ID, picked.ID)
}

func TestSetActiveTogglesPickPool(t *testing.T) {
	svc := newAddressService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateAddressInput{
		Currency: enums.CryptoCurrencyUSDTTRC20,
		Address:  "TVdeposit123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, created.ID, false))
	_, err = svc.PickAddress(ctx, enums.CryptoCurrencyUSDTTRC20)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentUnavailable), "got %v", err)

	require.NoError(t, svc.SetActive(ctx, created.ID, true))
	has, err := svc.HasActive(ctx, enums.CryptoCurrencyUSDTTRC20)
	require.NoError(t, err)
	require.True(t, has)
}

func TestSetActiveUnknownAddress(t *testing.T) {
	svc := newAddressService(t)

	err := svc.SetActive(context.Background(), uuid.New(), false)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestListReturnsAllAddresses(t *testing.T) {
	svc := newAddressService(t)
	ctx := context.Background()

	label := "hot wallet"
	_, err := svc.Create(ctx, CreateAddressInput{
		Currency: enums.CryptoCurrencyUSDTTRC20,
		Address:  "TVdeposit123",
		Label:    &label,
	})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateAddressInput{
		Currency: enums.CryptoCurrencyBTC,
		Address:  "bc1qdeposit456",
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, second.ID, false))

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		if row.ID == second.ID {
			require.False(t, row.Active)
		} else {
			require.True(t, row.Active)
			require.NotNil(t, row.Label)
		}
	}
}
