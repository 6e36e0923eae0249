// Package payments abstracts the hosted checkout gateway and stores the
// payment transaction mirror of each opened session.
package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

// SessionLine is one priced line shown on the gateway's payment page.
type SessionLine struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

// SessionRequest carries everything a gateway needs to open a checkout session.
type SessionRequest struct {
	OrderID        uuid.UUID
	Receipt        string
	Amount         int64
	Currency       enums.Currency
	Email          string
	Metadata       map[string]string
	Lines          []SessionLine
	IdempotencyKey string
}

// Session is the opened gateway session. LaunchParams are returned to the
// client unchanged.
type Session struct {
	ID           string
	Provider     enums.PaymentProvider
	LaunchURL    string
	LaunchParams map[string]string
}

// SessionState is the gateway's view of a session when polled.
type SessionState struct {
	ID        string
	Paid      bool
	Expired   bool
	PaymentID string
	Amount    int64
}

// Gateway opens and inspects hosted checkout sessions.
type Gateway interface {
	Provider() enums.PaymentProvider
	OpenSession(ctx context.Context, req SessionRequest) (*Session, error)
	FetchSession(ctx context.Context, sessionID string) (*SessionState, error)
}

// Select returns the gateway named by the payments configuration.
func Select(cfg config.PaymentsConfig, stripeGateway, squareGateway Gateway) (Gateway, error) {
	var selected Gateway
	switch cfg.NormalizedProvider() {
	case config.PaymentProviderStripe:
		selected = stripeGateway
	case config.PaymentProviderSquare:
		selected = squareGateway
	default:
		return nil, fmt.Errorf("unsupported payments provider %q", cfg.Provider)
	}
	if selected == nil {
		return nil, fmt.Errorf("payments provider %q is not configured", strings.TrimSpace(cfg.Provider))
	}
	return selected, nil
}

func validateRequest(req SessionRequest) error {
	if req.OrderID == uuid.Nil {
		return fmt.Errorf("order id is required")
	}
	if req.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if len(req.Lines) == 0 {
		return fmt.Errorf("at least one line is required")
	}
	return nil
}
