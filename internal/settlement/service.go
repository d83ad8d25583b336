package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/internal/balances"
	"github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/internal/shops"
	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	pkgerrors "github.com/mateoquiros/vendaria-backend/pkg/errors"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox/payloads"
	"github.com/mateoquiros/vendaria-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// UpdateStatusInput captures one actor-driven lifecycle move.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	Actor          types.Actor
	NewStatus      enums.OrderStatus
	TrackingNumber *string
}

// Service is the state machine governing order and payment status. Every
// transition is conditional on the current state, appends an audit row,
// and moves funds in the same unit of work.
type Service interface {
	// SettleBalanceCheckout debits the payer pool and advances the order
	// to paid inside the caller's checkout transaction.
	SettleBalanceCheckout(ctx context.Context, tx *gorm.DB, order *models.Order, actor types.Actor) error
	// ApprovePayment confirms a deferred crypto payment. Idempotent:
	// approving an already-paid order is a no-op success.
	ApprovePayment(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	// MarkPaymentSent lets the buyer flag a crypto transfer as sent.
	MarkPaymentSent(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	// Cancel closes an unpaid order. An admin cancelling a settled
	// order gets the refund path instead.
	Cancel(ctx context.Context, orderID uuid.UUID, actor types.Actor, reason string) (*models.Order, error)
	Refund(ctx context.Context, orderID uuid.UUID, actor types.Actor, reason string) (*models.Order, error)
	Transitions(ctx context.Context, orderID uuid.UUID) ([]models.OrderTransition, error)
}

type service struct {
	tx          txRunner
	ordersRepo  orders.Repository
	transitions TransitionRepository
	balances    balances.Service
	shops       shops.Service
	outbox      outboxPublisher
	logg        *logger.Logger
}

// NewService wires the settlement engine.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	transitions TransitionRepository,
	balanceSvc balances.Service,
	shopSvc shops.Service,
	publisher outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if transitions == nil {
		return nil, fmt.Errorf("transition repository required")
	}
	if balanceSvc == nil {
		return nil, fmt.Errorf("balance service required")
	}
	if shopSvc == nil {
		return nil, fmt.Errorf("shop service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:          tx,
		ordersRepo:  ordersRepo,
		transitions: transitions,
		balances:    balanceSvc,
		shops:       shopSvc,
		outbox:      publisher,
		logg:        logg,
	}, nil
}

func (s *service) SettleBalanceCheckout(ctx context.Context, tx *gorm.DB, order *models.Order, actor types.Actor) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if order.PaymentMethod != enums.PaymentMethodBalance {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order does not settle from a balance")
	}
	if order.PayerOwnerType == nil || order.PayerOwnerID == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "payer pool not resolved")
	}

	balanceSvc := s.balances.WithTx(tx)
	if err := balanceSvc.Debit(ctx, balances.MutationInput{
		OwnerType: *order.PayerOwnerType,
		OwnerID:   *order.PayerOwnerID,
		OrderID:   order.ID,
		Type:      enums.LedgerEntryCheckoutDebit,
		Amount:    order.Total,
	}); err != nil {
		return err
	}

	now := time.Now()
	if err := s.applyTransition(ctx, tx, order, enums.OrderStatusPaid, actor, map[string]any{
		"paid_at": now,
	}, nil); err != nil {
		return err
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actorRef(actor),
		Data: payloads.OrderPaidEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			BuyerID:       order.UserID,
			PaymentMethod: order.PaymentMethod,
			Total:         order.Total,
			PaidAt:        now,
		},
	})
}

func (s *service) ApprovePayment(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may approve payments")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Re-approving a settled order is a success, not an error.
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return order, nil
	}
	if order.PaymentMethod != enums.PaymentMethodCrypto {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only crypto payments await approval")
	}
	if order.Status != enums.OrderStatusPendingPayment && order.Status != enums.OrderStatusPaymentConfirming {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot approve payment for %s order", order.Status)
	}

	now := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.applyTransition(ctx, tx, order, enums.OrderStatusPaid, actor, map[string]any{
			"paid_at": now,
		}, nil); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				BuyerID:       order.UserID,
				PaymentMethod: order.PaymentMethod,
				Total:         order.Total,
				PaidAt:        now,
			},
		})
	})
	if err != nil {
		// A concurrent approval that won the race still means success.
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			if current, loadErr := s.loadOrder(ctx, orderID); loadErr == nil &&
				current.PaymentStatus == enums.PaymentStatusCompleted {
				return current, nil
			}
		}
		return nil, err
	}
	return s.loadOrder(ctx, orderID)
}

func (s *service) MarkPaymentSent(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	if order.PaymentMethod != enums.PaymentMethodCrypto {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only crypto payments are confirmed manually")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.applyTransition(ctx, tx, order, enums.OrderStatusPaymentConfirming, actor, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, orderID)
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", input.NewStatus)
	}
	// Settling a payment sets paid_at and emits the one-shot order_paid
	// event, so it never rides the generic status path.
	if input.NewStatus == enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payments are settled through approval, not a status update")
	}
	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	if _, ok := allowedTransitions[transitionKey{from: order.Status, to: input.NewStatus}]; !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, input.NewStatus)
	}
	if !canTransition(order.Status, input.NewStatus, input.Actor.Role) {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "%s may not move order from %s to %s", input.Actor.Role, order.Status, input.NewStatus)
	}
	if input.Actor.Role == enums.ActorRoleSeller {
		if err := s.authorizeSeller(ctx, order, input.Actor); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{}
	var metadata json.RawMessage
	now := time.Now()
	switch input.NewStatus {
	case enums.OrderStatusShipped:
		updates["shipped_at"] = now
		if input.TrackingNumber != nil {
			updates["tracking_number"] = *input.TrackingNumber
			metadata, _ = json.Marshal(map[string]string{"tracking_number": *input.TrackingNumber})
		}
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusCompleted:
		updates["completed_at"] = now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.applyTransition(ctx, tx, order, input.NewStatus, input.Actor, updates, metadata); err != nil {
			return err
		}
		if input.NewStatus == enums.OrderStatusCompleted {
			if err := s.creditShops(ctx, tx, order, input.Actor); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.OrderStateChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BuyerID:     order.UserID,
				From:        order.Status,
				To:          input.NewStatus,
				ActorRole:   input.Actor.Role,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, input.OrderID)
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor types.Actor, reason string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
	case actor.Role == enums.ActorRoleBuyer && order.UserID == actor.UserID:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer or an administrator may cancel orders")
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", order.Status)
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		// An admin cancelling a settled order is asking for its money
		// path to be unwound, which is a refund.
		if actor.IsAdmin() {
			return s.Refund(ctx, orderID, actor, reason)
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "paid orders must be refunded, not cancelled")
	}

	now := time.Now()
	var metadata json.RawMessage
	if reason != "" {
		metadata, _ = json.Marshal(map[string]string{"reason": reason})
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.applyTransition(ctx, tx, order, enums.OrderStatusCancelled, actor, map[string]any{
			"cancelled_at": now,
		}, metadata); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BuyerID:     order.UserID,
				CancelledAt: now,
				Reason:      reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, orderID)
}

func (s *service) Refund(ctx context.Context, orderID uuid.UUID, actor types.Actor, reason string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may refund orders")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "nothing to refund; cancel the order instead")
	}

	// Crypto payments hold no platform balance to reverse. The refund is
	// recorded and flagged for off-system reconciliation.
	manual := order.PaymentMethod == enums.PaymentMethodCrypto
	now := time.Now()
	meta := map[string]any{"manual_reconciliation": manual}
	if reason != "" {
		meta["reason"] = reason
	}
	metadata, _ := json.Marshal(meta)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// The conditional status update below is the idempotence gate for
		// the credit: a second refund attempt fails before funds move
		// because the credit follows the state flip in the same tx.
		if err := s.applyTransition(ctx, tx, order, enums.OrderStatusRefunded, actor, map[string]any{
			"refunded_at": now,
		}, metadata); err != nil {
			return err
		}
		if !manual {
			if order.PayerOwnerType == nil || order.PayerOwnerID == nil {
				return pkgerrors.New(pkgerrors.CodeInternal, "payer pool missing on paid order")
			}
			if err := s.balances.WithTx(tx).Credit(ctx, balances.MutationInput{
				OwnerType: *order.PayerOwnerType,
				OwnerID:   *order.PayerOwnerID,
				OrderID:   order.ID,
				Type:      enums.LedgerEntryRefundCredit,
				Amount:    order.Total,
			}); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRefunded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			Data: payloads.OrderRefundedEvent{
				OrderID:              order.ID,
				OrderNumber:          order.OrderNumber,
				BuyerID:              order.UserID,
				PaymentMethod:        order.PaymentMethod,
				Amount:               order.Total,
				RefundedAt:           now,
				ManualReconciliation: manual,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, orderID)
}

func (s *service) Transitions(ctx context.Context, orderID uuid.UUID) ([]models.OrderTransition, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.transitions.ListByOrderID(ctx, orderID)
}

// applyTransition performs the conditional status flip and appends the
// audit row. The caller supplies any timestamp or tracking updates.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, order *models.Order, to enums.OrderStatus, actor types.Actor, extra map[string]any, metadata json.RawMessage) error {
	toPayment := paymentStatusFor(to)
	if !isCompatible(to, toPayment) {
		return pkgerrors.Newf(pkgerrors.CodeInternal, "status %s incompatible with payment status %s", to, toPayment)
	}

	updates := map[string]any{
		"status":         to,
		"payment_status": toPayment,
		"updated_at":     time.Now(),
	}
	for key, value := range extra {
		updates[key] = value
	}

	repo := s.ordersRepo.WithTx(tx)
	applied, err := repo.UpdateStatusIf(ctx, order.ID, order.Status, updates)
	if err != nil {
		return err
	}
	if !applied {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is no longer %s", order.Status)
	}

	transition := &models.OrderTransition{
		ID:                uuid.New(),
		OrderID:           order.ID,
		FromStatus:        order.Status,
		ToStatus:          to,
		FromPaymentStatus: order.PaymentStatus,
		ToPaymentStatus:   toPayment,
		ActorID:           actor.UserID,
		ActorRole:         actor.Role,
		Metadata:          metadata,
	}
	return s.transitions.WithTx(tx).Create(ctx, transition)
}

// authorizeSeller enforces that the seller owns at least one item's shop
// and that the shop is eligible to fulfill.
func (s *service) authorizeSeller(ctx context.Context, order *models.Order, actor types.Actor) error {
	if actor.ShopID == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "seller has no shop")
	}
	owns := false
	for _, item := range order.Items {
		if item.ShopID == *actor.ShopID {
			owns = true
			break
		}
	}
	if !owns {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order contains no items from your shop")
	}
	eligible, err := s.shops.CanFulfill(ctx, *actor.ShopID)
	if err != nil {
		return err
	}
	if !eligible {
		return pkgerrors.New(pkgerrors.CodeForbidden, "shop is not eligible to fulfill orders")
	}
	return nil
}

// creditShops posts each shop's net sale credit when an order completes.
// Ineligible shops are skipped and logged rather than failing the close.
func (s *service) creditShops(ctx context.Context, tx *gorm.DB, order *models.Order, actor types.Actor) error {
	grossByShop := map[uuid.UUID]decimal.Decimal{}
	for _, item := range order.Items {
		grossByShop[item.ShopID] = grossByShop[item.ShopID].Add(item.LineTotal)
	}

	balanceSvc := s.balances.WithTx(tx)
	shopSvc := s.shops.WithTx(tx)
	now := time.Now()
	for shopID, gross := range grossByShop {
		eligible, err := shopSvc.CanFulfill(ctx, shopID)
		if err != nil {
			return err
		}
		if !eligible {
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"order_id": order.ID.String(),
					"shop_id":  shopID.String(),
				})
				s.logg.Warn(logCtx, "skipping sale credit for ineligible shop")
			}
			continue
		}

		rate, err := shopSvc.CommissionFor(ctx, shopID)
		if err != nil {
			return err
		}
		commission := gross.Mul(rate).Round(2)
		net := gross.Sub(commission)
		if net.IsPositive() {
			if err := balanceSvc.Credit(ctx, balances.MutationInput{
				OwnerType: enums.LedgerOwnerShop,
				OwnerID:   shopID,
				OrderID:   order.ID,
				Type:      enums.LedgerEntrySaleCredit,
				Amount:    net,
			}); err != nil {
				return err
			}
		}
		if err := shopSvc.RecordSale(ctx, shopID, gross); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShopCredited,
			AggregateType: enums.AggregateShop,
			AggregateID:   shopID,
			Actor:         actorRef(actor),
			Data: payloads.ShopCreditedEvent{
				OrderID:    order.ID,
				ShopID:     shopID,
				GrossSale:  gross,
				Commission: commission,
				NetCredit:  net,
				CreditedAt: now,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		ShopID: actor.ShopID,
		Role:   string(actor.Role),
	}
}
