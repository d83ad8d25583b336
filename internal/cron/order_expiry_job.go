package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/internal/settlement"
	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox/payloads"
)

// defaultPaymentWindow is how long a crypto order may sit unpaid before
// it is expired. Balance orders settle synchronously and never wait here.
const defaultPaymentWindow = 72 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pendingOrderReader interface {
	ListPendingPaymentBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type expiringOrderRepo interface {
	UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus enums.OrderStatus, updates map[string]any) (bool, error)
}

type transitionWriter interface {
	Create(ctx context.Context, transition *models.OrderTransition) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderRepoFactory func(tx *gorm.DB) expiringOrderRepo

type transitionFactory func(tx *gorm.DB) transitionWriter

// OrderExpiryJobParams configure the unpaid order scheduler.
type OrderExpiryJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	PendingReader pendingOrderReader
	Outbox        outboxEmitter
	OrderRepos    orderRepoFactory
	Transitions   transitionFactory
	Window        time.Duration
}

// NewOrderExpiryJob builds the cron job that cancels orders whose payment
// window has lapsed.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.PendingReader == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.OrderRepos == nil {
		return nil, fmt.Errorf("order repo factory required")
	}
	if params.Transitions == nil {
		return nil, fmt.Errorf("transition factory required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultPaymentWindow
	}
	return &orderExpiryJob{
		logg:          params.Logger,
		db:            params.DB,
		pendingReader: params.PendingReader,
		outbox:        params.Outbox,
		orderRepos:    params.OrderRepos,
		transitions:   params.Transitions,
		window:        window,
		now:           time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg          *logger.Logger
	db            txRunner
	pendingReader pendingOrderReader
	outbox        outboxEmitter
	orderRepos    orderRepoFactory
	transitions   transitionFactory
	window        time.Duration
	now           func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	stale, err := j.pendingReader.ListPendingPaymentBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query unpaid orders: %w", err)
	}

	var errs []error
	expired := 0
	for _, order := range stale {
		if err := j.expireOrder(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": len(stale),
		"expired": expired,
	})
	j.logg.Info(logCtx, "order expiry loop complete")
	return multierr.Combine(errs...)
}

func (j *orderExpiryJob) expireOrder(ctx context.Context, order models.Order) error {
	now := j.now().UTC()
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := j.orderRepos(tx).UpdateStatusIf(ctx, order.ID, enums.OrderStatusPendingPayment, map[string]any{
			"status":         enums.OrderStatusCancelled,
			"payment_status": enums.PaymentStatusExpired,
			"cancelled_at":   now,
			"updated_at":     now,
		})
		if err != nil {
			return err
		}
		// Someone paid or cancelled while we were scanning.
		if !applied {
			return nil
		}

		metadata, _ := json.Marshal(map[string]string{"reason": "payment window expired"})
		transition := &models.OrderTransition{
			ID:                uuid.New(),
			OrderID:           order.ID,
			FromStatus:        enums.OrderStatusPendingPayment,
			ToStatus:          enums.OrderStatusCancelled,
			FromPaymentStatus: enums.PaymentStatusPending,
			ToPaymentStatus:   enums.PaymentStatusExpired,
			ActorID:           uuid.Nil,
			ActorRole:         enums.ActorRoleSystem,
			Metadata:          metadata,
		}
		if err := j.transitions(tx).Create(ctx, transition); err != nil {
			return err
		}

		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BuyerID:     order.UserID,
				CancelledAt: now,
				Reason:      "payment window expired",
			},
		})
	})
}

// DefaultOrderRepos adapts the orders repository for the expiry job.
func DefaultOrderRepos(db *gorm.DB) orderRepoFactory {
	return func(tx *gorm.DB) expiringOrderRepo {
		if tx == nil {
			tx = db
		}
		return orders.NewRepository(tx)
	}
}

// DefaultTransitions adapts the settlement audit repository for the expiry job.
func DefaultTransitions(db *gorm.DB) transitionFactory {
	return func(tx *gorm.DB) transitionWriter {
		if tx == nil {
			tx = db
		}
		return settlement.NewTransitionRepository(tx)
	}
}
