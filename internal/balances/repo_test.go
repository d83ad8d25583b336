package balances

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

func setupBalancesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	balances := `
CREATE TABLE IF NOT EXISTS balances (
  owner_type TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  amount NUMERIC NOT NULL DEFAULT 0,
  updated_at DATETIME,
  PRIMARY KEY (owner_type, owner_id)
);`
	entries := `
CREATE TABLE IF NOT EXISTS balance_entries (
  id TEXT PRIMARY KEY,
  owner_type TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(balances).Error)
	require.NoError(t, db.Exec(entries).Error)
	return db
}

func TestRepositoryCreditCreatesAndAccumulates(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	require.NoError(t, repo.Credit(ctx, enums.LedgerOwnerUser, ownerID, decimal.NewFromInt(40)))
	require.NoError(t, repo.Credit(ctx, enums.LedgerOwnerUser, ownerID, decimal.RequireFromString("2.50")))

	balance, err := repo.Get(ctx, enums.LedgerOwnerUser, ownerID)
	require.NoError(t, err)
	require.True(t, balance.Amount.Equal(decimal.RequireFromString("42.50")), "got %s", balance.Amount)
}

func TestRepositoryDebitIfSufficientGuardsOverdraw(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	require.NoError(t, repo.Credit(ctx, enums.LedgerOwnerUser, ownerID, decimal.NewFromInt(10)))

	ok, err := repo.DebitIfSufficient(ctx, enums.LedgerOwnerUser, ownerID, decimal.NewFromInt(7))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.DebitIfSufficient(ctx, enums.LedgerOwnerUser, ownerID, decimal.NewFromInt(4))
	require.NoError(t, err)
	require.False(t, ok, "expected debit beyond remaining funds to be rejected")

	balance, err := repo.Get(ctx, enums.LedgerOwnerUser, ownerID)
	require.NoError(t, err)
	require.True(t, balance.Amount.Equal(decimal.NewFromInt(3)), "got %s", balance.Amount)
}

func TestRepositoryDebitMissingPoolRejected(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)

	ok, err := repo.DebitIfSufficient(context.Background(), enums.LedgerOwnerShop, uuid.New(), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRepositoryEntriesQueryByOrderAndOwner(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()
	orderID := uuid.New()

	first := &models.BalanceEntry{
		ID:        uuid.New(),
		OwnerType: enums.LedgerOwnerUser,
		OwnerID:   ownerID,
		OrderID:   orderID,
		Type:      enums.LedgerEntryCheckoutDebit,
		Amount:    decimal.NewFromInt(-25),
	}
	second := &models.BalanceEntry{
		ID:        uuid.New(),
		OwnerType: enums.LedgerOwnerUser,
		OwnerID:   ownerID,
		OrderID:   orderID,
		Type:      enums.LedgerEntryRefundCredit,
		Amount:    decimal.NewFromInt(25),
	}
	require.NoError(t, repo.CreateEntry(ctx, first))
	require.NoError(t, repo.CreateEntry(ctx, second))

	byOrder, err := repo.ListEntriesByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, byOrder, 2)

	byOwner, err := repo.ListEntriesByOwner(ctx, enums.LedgerOwnerUser, ownerID, 10)
	require.NoError(t, err)
	require.Len(t, byOwner, 2)

	other, err := repo.ListEntriesByOwner(ctx, enums.LedgerOwnerShop, ownerID, 10)
	require.NoError(t, err)
	require.Empty(t, other)
}
