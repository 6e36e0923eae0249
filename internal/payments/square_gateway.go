package payments

import (
	"context"
	"fmt"

	sq "github.com/square/square-go-sdk"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/square"
)

// SquareOrders is the subset of the Square client the gateway needs.
type SquareOrders interface {
	CreateOrder(ctx context.Context, params square.OrderCreateParams) (*sq.Order, error)
	GetOrder(ctx context.Context, orderID string) (*sq.Order, error)
	ApplicationID() string
	LocationID() string
}

// SquareGateway uses Square Orders as checkout sessions. The client pays the
// order through the Web Payments SDK using the returned launch params.
type SquareGateway struct {
	client SquareOrders
}

// NewSquareGateway builds a Square-backed gateway.
func NewSquareGateway(client SquareOrders) (*SquareGateway, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "square client required")
	}
	return &SquareGateway{client: client}, nil
}

func (g *SquareGateway) Provider() enums.PaymentProvider {
	return enums.PaymentProviderSquare
}

func (g *SquareGateway) OpenSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if err := validateRequest(req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session request")
	}
	items := make([]square.OrderLineItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		items = append(items, square.OrderLineItem{
			Name:       line.Name,
			Quantity:   line.Quantity,
			UnitAmount: line.UnitAmount,
		})
	}

	order, err := g.client.CreateOrder(ctx, square.OrderCreateParams{
		ReferenceID:    req.Receipt,
		Currency:       req.Currency.String(),
		LineItems:      items,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if order == nil || order.GetID() == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square returned an order without id")
	}
	id := *order.GetID()
	return &Session{
		ID:       id,
		Provider: enums.PaymentProviderSquare,
		LaunchParams: map[string]string{
			"order_id":       id,
			"application_id": g.client.ApplicationID(),
			"location_id":    g.client.LocationID(),
			"amount":         fmt.Sprintf("%d", req.Amount),
			"currency":       req.Currency.String(),
		},
	}, nil
}

func (g *SquareGateway) FetchSession(ctx context.Context, sessionID string) (*SessionState, error) {
	order, err := g.client.GetOrder(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return squareSessionState(sessionID, order), nil
}

func squareSessionState(sessionID string, order *sq.Order) *SessionState {
	state := square.OrderState(order)
	return &SessionState{
		ID:        sessionID,
		Paid:      state == sq.OrderStateCompleted,
		Expired:   state == sq.OrderStateCanceled,
		PaymentID: square.OrderPaymentID(order),
		Amount:    square.OrderTotal(order),
	}
}
