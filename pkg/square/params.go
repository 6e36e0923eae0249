package square

import (
	"strconv"
	"strings"

	sq "github.com/square/square-go-sdk"
)

// OrderLineItem is one ad hoc (non-catalog) line on a Square order.
type OrderLineItem struct {
	Name       string
	Quantity   int
	UnitAmount int64
	Note       string
}

// OrderCreateParams contains the fields required to open a Square order.
type OrderCreateParams struct {
	LocationID     string
	ReferenceID    string
	Currency       string
	LineItems      []OrderLineItem
	IdempotencyKey string
}

func (p OrderCreateParams) toSquareRequest(idempotencyKey string) *sq.CreateOrderRequest {
	state := sq.OrderStateOpen
	order := &sq.Order{
		LocationID: p.LocationID,
		State:      &state,
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		order.ReferenceID = ptrString(trimmed)
	}
	for _, item := range p.LineItems {
		line := &sq.OrderLineItem{
			Name:           ptrString(item.Name),
			Quantity:       strconv.Itoa(item.Quantity),
			BasePriceMoney: moneyPtr(item.UnitAmount, p.Currency),
		}
		if trimmed := strings.TrimSpace(item.Note); trimmed != "" {
			line.Note = ptrString(trimmed)
		}
		order.LineItems = append(order.LineItems, line)
	}
	return &sq.CreateOrderRequest{
		Order:          order,
		IdempotencyKey: ptrString(idempotencyKey),
	}
}

// OrderPaymentID returns the payment id of the first tender, if any.
func OrderPaymentID(order *sq.Order) string {
	if order == nil {
		return ""
	}
	for _, tender := range order.GetTenders() {
		if tender == nil {
			continue
		}
		if id := stringValue(tender.GetPaymentID()); id != "" {
			return id
		}
		if id := stringValue(tender.GetID()); id != "" {
			return id
		}
	}
	return ""
}

// OrderTotal returns the order's total money amount in minor units.
func OrderTotal(order *sq.Order) int64 {
	if order == nil || order.GetTotalMoney() == nil || order.GetTotalMoney().GetAmount() == nil {
		return 0
	}
	return *order.GetTotalMoney().GetAmount()
}

// OrderState returns the order state, empty when unset.
func OrderState(order *sq.Order) sq.OrderState {
	if order == nil || order.GetState() == nil {
		return ""
	}
	return *order.GetState()
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "INR"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
