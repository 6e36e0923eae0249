package enums

import "fmt"

// PaymentEvent is the gateway event name delivered to the payment webhook.
type PaymentEvent string

const (
	PaymentEventCaptured PaymentEvent = "payment.captured"
	PaymentEventFailed   PaymentEvent = "payment.failed"
)

var validPaymentEvents = []PaymentEvent{
	PaymentEventCaptured,
	PaymentEventFailed,
}

// String implements fmt.Stringer.
func (e PaymentEvent) String() string {
	return string(e)
}

// IsValid reports whether the event is one reconciliation acts on.
func (e PaymentEvent) IsValid() bool {
	for _, candidate := range validPaymentEvents {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParsePaymentEvent converts raw input into a PaymentEvent.
func ParsePaymentEvent(value string) (PaymentEvent, error) {
	for _, candidate := range validPaymentEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unsupported payment event %q", value)
}
