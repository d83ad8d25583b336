package settlement

import (
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

type transitionKey struct {
	from enums.OrderStatus
	to   enums.OrderStatus
}

// allowedTransitions maps each legal status move to the actor roles that
// may perform it. Cancellation and refund are handled separately because
// they are reachable from any non-terminal state. Moves into paid only
// happen through checkout settlement and payment approval.
var allowedTransitions = map[transitionKey][]enums.ActorRole{
	{enums.OrderStatusPendingPayment, enums.OrderStatusPaymentConfirming}: {enums.ActorRoleBuyer, enums.ActorRoleAdmin},
	{enums.OrderStatusPaid, enums.OrderStatusProcessing}:                  {enums.ActorRoleSeller, enums.ActorRoleAdmin},
	{enums.OrderStatusPaid, enums.OrderStatusShipped}:                     {enums.ActorRoleSeller, enums.ActorRoleAdmin},
	{enums.OrderStatusProcessing, enums.OrderStatusShipped}:               {enums.ActorRoleSeller, enums.ActorRoleAdmin},
	{enums.OrderStatusShipped, enums.OrderStatusDelivered}:                {enums.ActorRoleSeller, enums.ActorRoleAdmin},
	{enums.OrderStatusProcessing, enums.OrderStatusCompleted}:             {enums.ActorRoleAdmin},
	{enums.OrderStatusDelivered, enums.OrderStatusCompleted}:              {enums.ActorRoleAdmin},
}

// canTransition reports whether the role may move an order between the
// two states.
func canTransition(from, to enums.OrderStatus, role enums.ActorRole) bool {
	roles, ok := allowedTransitions[transitionKey{from: from, to: to}]
	if !ok {
		return false
	}
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// compatiblePaymentStatuses is the explicit coupling table between the two
// status axes, validated at every transition instead of left to caller
// discipline.
var compatiblePaymentStatuses = map[enums.OrderStatus][]enums.PaymentStatus{
	enums.OrderStatusPendingPayment:    {enums.PaymentStatusPending},
	enums.OrderStatusPaymentConfirming: {enums.PaymentStatusConfirming},
	enums.OrderStatusPaid:              {enums.PaymentStatusCompleted},
	enums.OrderStatusProcessing:        {enums.PaymentStatusCompleted},
	enums.OrderStatusShipped:           {enums.PaymentStatusCompleted},
	enums.OrderStatusDelivered:         {enums.PaymentStatusCompleted},
	enums.OrderStatusCompleted:         {enums.PaymentStatusCompleted},
	enums.OrderStatusCancelled:         {enums.PaymentStatusFailed, enums.PaymentStatusExpired},
	enums.OrderStatusRefunded:          {enums.PaymentStatusRefunded},
}

// paymentStatusFor returns the payment status an order must carry once it
// reaches the given lifecycle status on the forward path.
func paymentStatusFor(status enums.OrderStatus) enums.PaymentStatus {
	switch status {
	case enums.OrderStatusPendingPayment:
		return enums.PaymentStatusPending
	case enums.OrderStatusPaymentConfirming:
		return enums.PaymentStatusConfirming
	case enums.OrderStatusCancelled:
		return enums.PaymentStatusFailed
	case enums.OrderStatusRefunded:
		return enums.PaymentStatusRefunded
	default:
		return enums.PaymentStatusCompleted
	}
}

func isCompatible(status enums.OrderStatus, payment enums.PaymentStatus) bool {
	for _, allowed := range compatiblePaymentStatuses[status] {
		if allowed == payment {
			return true
		}
	}
	return false
}
