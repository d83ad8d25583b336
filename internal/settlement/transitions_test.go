package settlement

import (
	"testing"

	"github.com/mateoquiros/vendaria-backend/pkg/enums"
)

func TestCanTransitionRoleGating(t *testing.T) {
	cases := []struct {
		name string
		from enums.OrderStatus
		to   enums.OrderStatus
		role enums.ActorRole
		want bool
	}{
		{"buyer marks payment sent", enums.OrderStatusPendingPayment, enums.OrderStatusPaymentConfirming, enums.ActorRoleBuyer, true},
		{"buyer cannot mark paid", enums.OrderStatusPaymentConfirming, enums.OrderStatusPaid, enums.ActorRoleBuyer, false},
		{"seller cannot mark paid", enums.OrderStatusPaymentConfirming, enums.OrderStatusPaid, enums.ActorRoleSeller, false},
		{"admin marks paid via approval only", enums.OrderStatusPaymentConfirming, enums.OrderStatusPaid, enums.ActorRoleAdmin, false},
		{"system marks paid via settlement only", enums.OrderStatusPendingPayment, enums.OrderStatusPaid, enums.ActorRoleSystem, false},
		{"seller ships paid order", enums.OrderStatusPaid, enums.OrderStatusShipped, enums.ActorRoleSeller, true},
		{"seller cannot complete", enums.OrderStatusDelivered, enums.OrderStatusCompleted, enums.ActorRoleSeller, false},
		{"admin completes delivered", enums.OrderStatusDelivered, enums.OrderStatusCompleted, enums.ActorRoleAdmin, true},
		{"no backwards moves", enums.OrderStatusShipped, enums.OrderStatusPaid, enums.ActorRoleAdmin, false},
		{"no skipping to delivered", enums.OrderStatusPendingPayment, enums.OrderStatusDelivered, enums.ActorRoleAdmin, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canTransition(tc.from, tc.to, tc.role); got != tc.want {
				t.Fatalf("canTransition(%s, %s, %s) = %v, want %v", tc.from, tc.to, tc.role, got, tc.want)
			}
		})
	}
}

func TestPaymentStatusCoupling(t *testing.T) {
	for status := range compatiblePaymentStatuses {
		derived := paymentStatusFor(status)
		if !isCompatible(status, derived) {
			t.Fatalf("derived payment status %s is not compatible with %s", derived, status)
		}
	}
	if isCompatible(enums.OrderStatusPaid, enums.PaymentStatusPending) {
		t.Fatal("paid order must not carry pending payment status")
	}
	if isCompatible(enums.OrderStatusRefunded, enums.PaymentStatusCompleted) {
		t.Fatal("refunded order must not carry completed payment status")
	}
}
