package enums

import "testing"

func TestOrderStatusFulfillmentTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusConfirmed, false},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanFulfillTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestFulfillmentSources(t *testing.T) {
	sources := FulfillmentSources(OrderStatusCancelled)
	if len(sources) != 3 {
		t.Fatalf("expected 3 cancellable statuses, got %v", sources)
	}
	if got := FulfillmentSources(OrderStatusConfirmed); len(got) != 0 {
		t.Fatalf("confirmed must only be reachable through payment, got %v", got)
	}
}

func TestStockStatusFor(t *testing.T) {
	if StockStatusFor(11) != StockStatusInStock {
		t.Fatal("11 should be in stock")
	}
	if StockStatusFor(10) != StockStatusLowStock || StockStatusFor(1) != StockStatusLowStock {
		t.Fatal("1-10 should be low stock")
	}
	if StockStatusFor(0) != StockStatusOutOfStock {
		t.Fatal("0 should be out of stock")
	}
}

func TestParseSizeNormalizes(t *testing.T) {
	size, err := ParseSize(" xl ")
	if err != nil || size != SizeXL {
		t.Fatalf("expected XL, got %q (%v)", size, err)
	}
	if _, err := ParseSize("XXXL"); err == nil {
		t.Fatal("expected XXXL to be rejected")
	}
}
