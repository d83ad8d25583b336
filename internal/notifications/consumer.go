package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mateoquiros/vendaria-backend/pkg/db/models"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox/idempotency"
	"github.com/mateoquiros/vendaria-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns order lifecycle changes into
// buyer-facing notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

var handledEvents = map[enums.OutboxEventType]struct{}{
	enums.EventOrderCreated:      {},
	enums.EventOrderPaid:         {},
	enums.EventOrderStateChanged: {},
	enums.EventOrderCancelled:    {},
	enums.EventOrderRefunded:     {},
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if _, ok := handledEvents[eventType]; !ok {
		c.logg.Info(logCtx, "skipping non-order event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := buildNotification(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notification", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "event carries no buyer notification")
		return processResult{ack: true}
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"recipient_id": notification.RecipientID.String(),
		"kind":         string(notification.Kind),
	}), "buyer notified of order event")
	return processResult{ack: true}
}

// buildNotification maps a domain event payload to a buyer notification.
// A nil notification with nil error means the event is valid but has no
// buyer-facing message.
func buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.BuyerID == uuid.Nil {
			return nil, fmt.Errorf("buyer id missing")
		}
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.BuyerID,
			Kind:        enums.NotificationOrderPlaced,
			OrderID:     uuidPtr(payload.OrderID),
			Title:       "Order placed",
			Body:        fmt.Sprintf("Order %s was placed for %s.", payload.OrderNumber, payload.Total.StringFixed(2)),
		}, nil

	case enums.EventOrderPaid:
		var payload payloads.OrderPaidEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.BuyerID == uuid.Nil {
			return nil, fmt.Errorf("buyer id missing")
		}
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.BuyerID,
			Kind:        enums.NotificationOrderPaid,
			OrderID:     uuidPtr(payload.OrderID),
			Title:       "Payment received",
			Body:        fmt.Sprintf("Payment of %s for order %s has been confirmed.", payload.Total.StringFixed(2), payload.OrderNumber),
		}, nil

	case enums.EventOrderStateChanged:
		var payload payloads.OrderStateChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.BuyerID == uuid.Nil {
			return nil, fmt.Errorf("buyer id missing")
		}
		kind, title, body := stateChangeMessage(payload)
		if kind == "" {
			return nil, nil
		}
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.BuyerID,
			Kind:        kind,
			OrderID:     uuidPtr(payload.OrderID),
			Title:       title,
			Body:        body,
		}, nil

	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.BuyerID == uuid.Nil {
			return nil, fmt.Errorf("buyer id missing")
		}
		body := fmt.Sprintf("Order %s was cancelled.", payload.OrderNumber)
		if payload.Reason != "" {
			body = fmt.Sprintf("Order %s was cancelled. Reason: %s", payload.OrderNumber, payload.Reason)
		}
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.BuyerID,
			Kind:        enums.NotificationOrderCancelled,
			OrderID:     uuidPtr(payload.OrderID),
			Title:       "Order cancelled",
			Body:        body,
		}, nil

	case enums.EventOrderRefunded:
		var payload payloads.OrderRefundedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.BuyerID == uuid.Nil {
			return nil, fmt.Errorf("buyer id missing")
		}
		body := fmt.Sprintf("Order %s was refunded for %s.", payload.OrderNumber, payload.Amount.StringFixed(2))
		if payload.ManualReconciliation {
			body = fmt.Sprintf("Order %s was refunded. A refund of %s will be returned to you off-platform.", payload.OrderNumber, payload.Amount.StringFixed(2))
		}
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.BuyerID,
			Kind:        enums.NotificationOrderRefunded,
			OrderID:     uuidPtr(payload.OrderID),
			Title:       "Order refunded",
			Body:        body,
		}, nil

	default:
		return nil, nil
	}
}

func stateChangeMessage(payload payloads.OrderStateChangedEvent) (enums.NotificationKind, string, string) {
	switch payload.To {
	case enums.OrderStatusShipped:
		return enums.NotificationOrderShipped, "Order shipped",
			fmt.Sprintf("Order %s is on its way.", payload.OrderNumber)
	case enums.OrderStatusDelivered:
		return enums.NotificationOrderDelivered, "Order delivered",
			fmt.Sprintf("Order %s has been delivered.", payload.OrderNumber)
	case enums.OrderStatusCompleted:
		return enums.NotificationOrderCompleted, "Order completed",
			fmt.Sprintf("Order %s is complete. Thanks for shopping with us.", payload.OrderNumber)
	default:
		return "", "", ""
	}
}

func uuidPtr(value uuid.UUID) *uuid.UUID {
	return &value
}
