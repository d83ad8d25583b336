package enums

import "fmt"

// NotificationKind names the user-facing notification categories keyed to
// settlement events.
type NotificationKind string

const (
	NotificationOrderPlaced     NotificationKind = "order_placed"
	NotificationPaymentApproved NotificationKind = "payment_approved"
	NotificationOrderPaid       NotificationKind = "order_paid"
	NotificationOrderShipped    NotificationKind = "order_shipped"
	NotificationOrderDelivered  NotificationKind = "order_delivered"
	NotificationOrderCompleted  NotificationKind = "order_completed"
	NotificationOrderCancelled  NotificationKind = "order_cancelled"
	NotificationOrderRefunded   NotificationKind = "order_refunded"
)

var validNotificationKinds = []NotificationKind{
	NotificationOrderPlaced,
	NotificationPaymentApproved,
	NotificationOrderPaid,
	NotificationOrderShipped,
	NotificationOrderDelivered,
	NotificationOrderCompleted,
	NotificationOrderCancelled,
	NotificationOrderRefunded,
}

// String implements fmt.Stringer.
func (k NotificationKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known NotificationKind.
func (k NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
