package settlement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/internal/balances"
	"github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/internal/shops"
	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

func setupSettlementTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_payment',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  crypto_currency TEXT,
  payer_owner_type TEXT,
  payer_owner_id TEXT,
  subtotal NUMERIC NOT NULL,
  shipping NUMERIC NOT NULL,
  tax NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  shipping_address TEXT,
  tracking_number TEXT,
  admin_notes TEXT,
  paid_at DATETIME,
  shipped_at DATETIME,
  delivered_at DATETIME,
  completed_at DATETIME,
  cancelled_at DATETIME,
  refunded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  shop_id TEXT NOT NULL,
  name TEXT NOT NULL,
  image_url TEXT,
  unit_price NUMERIC NOT NULL,
  qty INTEGER NOT NULL,
  line_total NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_transitions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  from_status TEXT NOT NULL,
  to_status TEXT NOT NULL,
  from_payment_status TEXT NOT NULL,
  to_payment_status TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS balances (
  owner_type TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  amount NUMERIC NOT NULL DEFAULT 0,
  updated_at DATETIME,
  PRIMARY KEY (owner_type, owner_id)
);`,
		`CREATE TABLE IF NOT EXISTS balance_entries (
  id TEXT PRIMARY KEY,
  owner_type TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS shops (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  kyc_status TEXT NOT NULL DEFAULT 'pending_verification',
  level INTEGER NOT NULL DEFAULT 1,
  total_sales NUMERIC NOT NULL DEFAULT 0,
  commission_rate NUMERIC NOT NULL DEFAULT 0.05,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordedEvent struct {
	event     outbox.DomainEvent
	ifMissing bool
}

type fakeOutbox struct {
	events []recordedEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, recordedEvent{event: event})
	return nil
}

func (f *fakeOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, recordedEvent{event: event, ifMissing: true})
	return nil
}

func (f *fakeOutbox) ofType(eventType enums.OutboxEventType) []recordedEvent {
	var matched []recordedEvent
	for _, recorded := range f.events {
		if recorded.event.EventType == eventType {
			matched = append(matched, recorded)
		}
	}
	return matched
}

type settlementHarness struct {
	db       *gorm.DB
	svc      Service
	balances balances.Service
	outbox   *fakeOutbox
}

func newSettlementHarness(t *testing.T) *settlementHarness {
	t.Helper()
	db := setupSettlementTestDB(t)

	balanceSvc, err := balances.NewService(balances.NewRepository(db))
	require.NoError(t, err)
	shopSvc, err := shops.NewService(shops.NewRepository(db))
	require.NoError(t, err)

	publisher := &fakeOutbox{}
	svc, err := NewService(
		&gormTxRunner{db: db},
		orders.NewRepository(db),
		NewTransitionRepository(db),
		balanceSvc,
		shopSvc,
		publisher,
		nil,
	)
	require.NoError(t, err)

	return &settlementHarness{db: db, svc: svc, balances: balanceSvc, outbox: publisher}
}

type seedOrderParams struct {
	status        enums.OrderStatus
	paymentStatus enums.PaymentStatus
	method        enums.PaymentMethod
	total         decimal.Decimal
	buyerID       uuid.UUID
	payerType     *enums.LedgerOwnerType
	payerID       *uuid.UUID
	items         []models.OrderItem
}

func (h *settlementHarness) seedOrder(t *testing.T, params seedOrderParams) *models.Order {
	t.Helper()
	if params.buyerID == uuid.Nil {
		params.buyerID = uuid.New()
	}
	order := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "VND-20260901-" + uuid.NewString()[:6],
		UserID:         params.buyerID,
		Status:         params.status,
		PaymentStatus:  params.paymentStatus,
		PaymentMethod:  params.method,
		PayerOwnerType: params.payerType,
		PayerOwnerID:   params.payerID,
		Subtotal:       params.total,
		Shipping:       decimal.Zero,
		Tax:            decimal.Zero,
		Total:          params.total,
	}
	require.NoError(t, h.db.Create(order).Error)
	for i := range params.items {
		params.items[i].ID = uuid.New()
		params.items[i].OrderID = order.ID
		require.NoError(t, h.db.Create(&params.items[i]).Error)
	}
	order.Items = params.items
	return order
}

func (h *settlementHarness) seedShop(t *testing.T, status enums.ShopStatus, kyc enums.KYCStatus, rate string) *models.Shop {
	t.Helper()
	shop := &models.Shop{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		Name:           "Test Shop",
		Status:         status,
		KYCStatus:      kyc,
		CommissionRate: decimal.RequireFromString(rate),
	}
	require.NoError(t, h.db.Create(shop).Error)
	return shop
}

func (h *settlementHarness) creditPool(t *testing.T, ownerType enums.LedgerOwnerType, ownerID uuid.UUID, amount string) {
	t.Helper()
	require.NoError(t, h.balances.Credit(context.Background(), balances.MutationInput{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		OrderID:   uuid.New(),
		Type:      enums.LedgerEntryAdjustment,
		Amount:    decimal.RequireFromString(amount),
	}))
}

func (h *settlementHarness) transitionCount(t *testing.T, orderID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.OrderTransition{}).Where("order_id = ?", orderID).Count(&count).Error)
	return count
}

func ownerPtr(value enums.LedgerOwnerType) *enums.LedgerOwnerType {
	return &value
}

func idPtr(value uuid.UUID) *uuid.UUID {
	return &value
}

func TestSettleBalanceCheckoutDebitsAndMarksPaid(t *testing.T) {
	h := newSettlementHarness(t)
	ctx := context.Background()
	buyerID := uuid.New()
	h.creditPool(t, enums.LedgerOwnerUser, buyerID, "200")

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(50),
		buyerID:       buyerID,
		payerType:     ownerPtr(enums.LedgerOwnerUser),
		payerID:       idPtr(buyerID),
	})

	runner := &gormTxRunner{db: h.db}
	require.NoError(t, runner.WithTx(ctx, func(tx *gorm.DB) error {
		return h.svc.SettleBalanceCheckout(ctx, tx, order, types.SystemActor())
	}))

	var stored models.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	require.Equal(t, enums.OrderStatusPaid, stored.Status)
	require.Equal(t, enums.PaymentStatusCompleted, stored.PaymentStatus)
	require.NotNil(t, stored.PaidAt)

	remaining, err := h.balances.Get(ctx, enums.LedgerOwnerUser, buyerID)
	require.NoError(t, err)
	require.True(t, remaining.Equal(decimal.NewFromInt(150)), "got %s", remaining)

	entries, err := h.balances.EntriesForOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, enums.LedgerEntryCheckoutDebit, entries[0].Type)
	require.True(t, entries[0].Amount.Equal(decimal.NewFromInt(-50)), "got %s", entries[0].Amount)

	require.EqualValues(t, 1, h.transitionCount(t, order.ID))
	require.Len(t, h.outbox.ofType(enums.EventOrderPaid), 1)
}

func TestSettleBalanceCheckoutInsufficientFundsRollsBack(t *testing.T) {
	h := newSettlementHarness(t)
	ctx := context.Background()
	buyerID := uuid.New()
	h.creditPool(t, enums.LedgerOwnerUser, buyerID, "30")

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(50),
		buyerID:       buyerID,
		payerType:     ownerPtr(enums.LedgerOwnerUser),
		payerID:       idPtr(buyerID),
	})

	runner := &gormTxRunner{db: h.db}
	err := runner.WithTx(ctx, func(tx *gorm.DB) error {
		return h.svc.SettleBalanceCheckout(ctx, tx, order, types.SystemActor())
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientFunds), "got %v", err)

	var stored models.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	require.Equal(t, enums.OrderStatusPendingPayment, stored.Status)
	require.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)

	remaining, err := h.balances.Get(ctx, enums.LedgerOwnerUser, buyerID)
	require.NoError(t, err)
	require.True(t, remaining.Equal(decimal.NewFromInt(30)), "got %s", remaining)

	entries, err := h.balances.EntriesForOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.EqualValues(t, 0, h.transitionCount(t, order.ID))
}

func TestApprovePaymentIsIdempotent(t *testing.T) {
	h := newSettlementHarness(t)
	ctx := context.Background()
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodCrypto,
		total:         decimal.NewFromInt(75),
	})

	first, err := h.svc.ApprovePayment(ctx, order.ID, admin)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPaid, first.Status)
	require.Equal(t, enums.PaymentStatusCompleted, first.PaymentStatus)

	second, err := h.svc.ApprovePayment(ctx, order.ID, admin)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPaid, second.Status)

	require.EqualValues(t, 1, h.transitionCount(t, order.ID))
	require.Len(t, h.outbox.ofType(enums.EventOrderPaid), 1)
}

func TestApprovePaymentRequiresAdmin(t *testing.T) {
	h := newSettlementHarness(t)
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodCrypto,
		total:         decimal.NewFromInt(10),
	})

	buyer := types.Actor{UserID: order.UserID, Role: enums.ActorRoleBuyer}
	_, err := h.svc.ApprovePayment(context.Background(), order.ID, buyer)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestApprovePaymentRejectsBalanceOrders(t *testing.T) {
	h := newSettlementHarness(t)
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(10),
	})

	_, err := h.svc.ApprovePayment(context.Background(), order.ID, admin)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	h := newSettlementHarness(t)
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusDelivered,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(10),
	})

	_, err := h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		Actor:     admin,
		NewStatus: enums.OrderStatusPendingPayment,
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)
	require.EqualValues(t, 0, h.transitionCount(t, order.ID))
}

func TestUpdateStatusCannotMarkPaid(t *testing.T) {
	h := newSettlementHarness(t)
	ctx := context.Background()
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPendingPayment,
		enums.OrderStatusPaymentConfirming,
	} {
		order := h.seedOrder(t, seedOrderParams{
			status:        status,
			paymentStatus: paymentStatusFor(status),
			method:        enums.PaymentMethodCrypto,
			total:         decimal.NewFromInt(75),
		})

		_, err := h.svc.UpdateStatus(ctx, UpdateStatusInput{
			OrderID:   order.ID,
			Actor:     admin,
			NewStatus: enums.OrderStatusPaid,
		})
		require.Error(t, err)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)

		var stored models.Order
		require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
		require.Equal(t, status, stored.Status)
		require.Nil(t, stored.PaidAt)
		require.EqualValues(t, 0, h.transitionCount(t, order.ID))
	}
	require.Empty(t, h.outbox.ofType(enums.EventOrderPaid))
	require.Empty(t, h.outbox.ofType(enums.EventOrderStateChanged))

	// Settlement still runs through the approval entry point.
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaymentConfirming,
		paymentStatus: enums.PaymentStatusConfirming,
		method:        enums.PaymentMethodCrypto,
		total:         decimal.NewFromInt(75),
	})
	approved, err := h.svc.ApprovePayment(ctx, order.ID, admin)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPaid, approved.Status)
	require.NotNil(t, approved.PaidAt)
	require.Len(t, h.outbox.ofType(enums.EventOrderPaid), 1)
}

func TestUpdateStatusRejectsUnauthorizedRole(t *testing.T) {
	h := newSettlementHarness(t)
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaid,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(10),
	})

	buyer := types.Actor{UserID: order.UserID, Role: enums.ActorRoleBuyer}
	_, err := h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		Actor:     buyer,
		NewStatus: enums.OrderStatusShipped,
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestUpdateStatusSellerMustOwnItems(t *testing.T) {
	h := newSettlementHarness(t)
	shop := h.seedShop(t, enums.ShopStatusActive, enums.KYCStatusApproved, "0.05")
	otherShop := h.seedShop(t, enums.ShopStatusActive, enums.KYCStatusApproved, "0.05")

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaid,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(20),
		items: []models.OrderItem{{
			ShopID:    shop.ID,
			Name:      "Widget",
			UnitPrice: decimal.NewFromInt(20),
			Qty:       1,
			LineTotal: decimal.NewFromInt(20),
		}},
	})

	stranger := types.Actor{UserID: otherShop.OwnerID, Role: enums.ActorRoleSeller, ShopID: idPtr(otherShop.ID)}
	_, err := h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		Actor:     stranger,
		NewStatus: enums.OrderStatusProcessing,
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)

	owner := types.Actor{UserID: shop.OwnerID, Role: enums.ActorRoleSeller, ShopID: idPtr(shop.ID)}
	updated, err := h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		Actor:     owner,
		NewStatus: enums.OrderStatusProcessing,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusProcessing, updated.Status)
}

func TestUpdateStatusSellerShopMustBeEligible(t *testing.T) {
	h := newSettlementHarness(t)
	shop := h.seedShop(t, enums.ShopStatusSuspended, enums.KYCStatusApproved, "0.05")

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaid,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(20),
		items: []models.OrderItem{{
			ShopID:    shop.ID,
			Name:      "Widget",
			UnitPrice: decimal.NewFromInt(20),
			Qty:       1,
			LineTotal: decimal.NewFromInt(20),
		}},
	})

	seller := types.Actor{UserID: shop.OwnerID, Role: enums.ActorRoleSeller, ShopID: idPtr(shop.ID)}
	_, err := h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		Actor:     seller,
		NewStatus: enums.OrderStatusShipped,
	})
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestUpdateStatusShippedRecordsTracking(t *testing.T) {
	h := newSettlementHarness(t)
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaid,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(10),
	})

	tracking := "TRACK-123"
	updated, err := h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:        order.ID,
		Actor:          admin,
		NewStatus:      enums.OrderStatusShipped,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, updated.Status)
	require.NotNil(t, updated.ShippedAt)
	require.NotNil(t, updated.TrackingNumber)
	require.Equal(t, tracking, *updated.TrackingNumber)
	require.Len(t, h.outbox.ofType(enums.EventOrderStateChanged), 1)
}

func TestCompleteCreditsEligibleShops(t *testing.T) {
	h := newSettlementHarness(t)
	ctx := context.Background()
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}

	eligible := h.seedShop(t, enums.ShopStatusActive, enums.KYCStatusApproved, "0.05")
	suspended := h.seedShop(t, enums.ShopStatusSuspended, enums.KYCStatusApproved, "0.05")

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusDelivered,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(150),
		items: []models.OrderItem{
			{
				ShopID:    eligible.ID,
				Name:      "Widget",
				UnitPrice: decimal.NewFromInt(50),
				Qty:       2,
				LineTotal: decimal.NewFromInt(100),
			},
			{
				ShopID:    suspended.ID,
				Name:      "Gadget",
				UnitPrice: decimal.NewFromInt(50),
				Qty:       1,
				LineTotal: decimal.NewFromInt(50),
			},
		},
	})

	updated, err := h.svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID:   order.ID,
		Actor:     admin,
		NewStatus: enums.OrderStatusCompleted,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	// 100 gross less 5% commission.
	credited, err := h.balances.Get(ctx, enums.LedgerOwnerShop, eligible.ID)
	require.NoError(t, err)
	require.True(t, credited.Equal(decimal.NewFromInt(95)), "got %s", credited)

	skipped, err := h.balances.Get(ctx, enums.LedgerOwnerShop, suspended.ID)
	require.NoError(t, err)
	require.True(t, skipped.IsZero(), "got %s", skipped)

	var stored models.Shop
	require.NoError(t, h.db.First(&stored, "id = ?", eligible.ID).Error)
	require.True(t, stored.TotalSales.Equal(decimal.NewFromInt(100)), "got %s", stored.TotalSales)

	require.Len(t, h.outbox.ofType(enums.EventShopCredited), 1)
}

func TestRefundCreditsPayerPoolOnce(t *testing.T) {
	h := newSettlementHarness(t)
	ctx := context.Background()
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	buyerID := uuid.New()

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaid,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(60),
		buyerID:       buyerID,
		payerType:     ownerPtr(enums.LedgerOwnerUser),
		payerID:       idPtr(buyerID),
	})

	refunded, err := h.svc.Refund(ctx, order.ID, admin, "damaged in transit")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRefunded, refunded.Status)
	require.Equal(t, enums.PaymentStatusRefunded, refunded.PaymentStatus)
	require.NotNil(t, refunded.RefundedAt)

	balance, err := h.balances.Get(ctx, enums.LedgerOwnerUser, buyerID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(60)), "got %s", balance)

	_, err = h.svc.Refund(ctx, order.ID, admin, "again")
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	balance, err = h.balances.Get(ctx, enums.LedgerOwnerUser, buyerID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(60)), "expected single refund credit, got %s", balance)
}

func TestRefundCryptoIsManualReconciliation(t *testing.T) {
	h := newSettlementHarness(t)
	ctx := context.Background()
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaid,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodCrypto,
		total:         decimal.NewFromInt(80),
	})

	refunded, err := h.svc.Refund(ctx, order.ID, admin, "")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRefunded, refunded.Status)

	entries, err := h.balances.EntriesForOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, entries, "crypto refunds move no platform funds")

	events := h.outbox.ofType(enums.EventOrderRefunded)
	require.Len(t, events, 1)
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	h := newSettlementHarness(t)
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(10),
	})

	_, err := h.svc.Refund(context.Background(), order.ID, admin, "")
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestCancelRejectsPaidOrdersForBuyer(t *testing.T) {
	h := newSettlementHarness(t)
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaid,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(10),
	})

	buyer := types.Actor{UserID: order.UserID, Role: enums.ActorRoleBuyer}
	_, err := h.svc.Cancel(context.Background(), order.ID, buyer, "changed my mind")
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	var stored models.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	require.Equal(t, enums.OrderStatusPaid, stored.Status)
}

func TestCancelPaidOrderRefundsForAdmin(t *testing.T) {
	h := newSettlementHarness(t)
	ctx := context.Background()
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	buyerID := uuid.New()

	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPaid,
		paymentStatus: enums.PaymentStatusCompleted,
		method:        enums.PaymentMethodBalance,
		total:         decimal.NewFromInt(40),
		buyerID:       buyerID,
		payerType:     ownerPtr(enums.LedgerOwnerUser),
		payerID:       idPtr(buyerID),
	})

	closed, err := h.svc.Cancel(ctx, order.ID, admin, "fraud hold")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRefunded, closed.Status)
	require.Equal(t, enums.PaymentStatusRefunded, closed.PaymentStatus)
	require.NotNil(t, closed.RefundedAt)

	balance, err := h.balances.Get(ctx, enums.LedgerOwnerUser, buyerID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(40)), "got %s", balance)

	require.Len(t, h.outbox.ofType(enums.EventOrderRefunded), 1)
	require.Empty(t, h.outbox.ofType(enums.EventOrderCancelled))
}

func TestCancelPendingOrder(t *testing.T) {
	h := newSettlementHarness(t)
	admin := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodCrypto,
		total:         decimal.NewFromInt(10),
	})

	cancelled, err := h.svc.Cancel(context.Background(), order.ID, admin, "never funded")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, enums.PaymentStatusFailed, cancelled.PaymentStatus)
	require.NotNil(t, cancelled.CancelledAt)
	require.Len(t, h.outbox.ofType(enums.EventOrderCancelled), 1)
}

func TestCancelBuyerOwnsOrder(t *testing.T) {
	h := newSettlementHarness(t)
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodCrypto,
		total:         decimal.NewFromInt(10),
	})

	stranger := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleBuyer}
	_, err := h.svc.Cancel(context.Background(), order.ID, stranger, "not mine")
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)

	buyer := types.Actor{UserID: order.UserID, Role: enums.ActorRoleBuyer}
	cancelled, err := h.svc.Cancel(context.Background(), order.ID, buyer, "changed my mind")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
}

func TestMarkPaymentSentMovesToConfirming(t *testing.T) {
	h := newSettlementHarness(t)
	order := h.seedOrder(t, seedOrderParams{
		status:        enums.OrderStatusPendingPayment,
		paymentStatus: enums.PaymentStatusPending,
		method:        enums.PaymentMethodCrypto,
		total:         decimal.NewFromInt(25),
	})

	buyer := types.Actor{UserID: order.UserID, Role: enums.ActorRoleBuyer}
	updated, err := h.svc.MarkPaymentSent(context.Background(), order.ID, buyer)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPaymentConfirming, updated.Status)
	require.Equal(t, enums.PaymentStatusConfirming, updated.PaymentStatus)

	other := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleBuyer}
	_, err = h.svc.MarkPaymentSent(context.Background(), order.ID, other)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "got %v", err)
}
