package enums

import "fmt"

// OrderStatus tracks the fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// fulfillmentTransitions lists the admin-driven moves allowed out of each status.
// pending -> confirmed is reserved for payment reconciliation.
var fulfillmentTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanFulfillTo reports whether an admin may move an order from s to next.
func (s OrderStatus) CanFulfillTo(next OrderStatus) bool {
	for _, candidate := range fulfillmentTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// FulfillmentSources returns every status an admin may move into next from.
func FulfillmentSources(next OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, from := range validOrderStatuses {
		if from.CanFulfillTo(next) {
			out = append(out, from)
		}
	}
	return out
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
