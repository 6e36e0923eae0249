package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	pkgstripe "github.com/angelmondragon/bulkwear-backend/pkg/stripe"
)

// StripeSessions is the subset of the Stripe client the gateway needs.
type StripeSessions interface {
	CreateCheckoutSession(ctx context.Context, in pkgstripe.CheckoutParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

// StripeGateway opens Stripe Checkout Sessions in payment mode.
type StripeGateway struct {
	client     StripeSessions
	successURL string
	cancelURL  string
}

// NewStripeGateway builds a Stripe-backed gateway.
func NewStripeGateway(client StripeSessions, successURL, cancelURL string) (*StripeGateway, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	return &StripeGateway{client: client, successURL: successURL, cancelURL: cancelURL}, nil
}

func (g *StripeGateway) Provider() enums.PaymentProvider {
	return enums.PaymentProviderStripe
}

func (g *StripeGateway) OpenSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if err := validateRequest(req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session request")
	}
	items := make([]pkgstripe.LineItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		items = append(items, pkgstripe.LineItem{
			Name:       line.Name,
			UnitAmount: line.UnitAmount,
			Quantity:   int64(line.Quantity),
		})
	}
	metadata := map[string]string{"order_id": req.OrderID.String(), "receipt": req.Receipt}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	sess, err := g.client.CreateCheckoutSession(ctx, pkgstripe.CheckoutParams{
		Currency:       req.Currency.String(),
		ReferenceID:    req.Receipt,
		CustomerEmail:  req.Email,
		SuccessURL:     g.successURL,
		CancelURL:      g.cancelURL,
		Metadata:       metadata,
		LineItems:      items,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        sess.ID,
		Provider:  enums.PaymentProviderStripe,
		LaunchURL: sess.URL,
		LaunchParams: map[string]string{
			"session_id":   sess.ID,
			"checkout_url": sess.URL,
		},
	}, nil
}

func (g *StripeGateway) FetchSession(ctx context.Context, sessionID string) (*SessionState, error) {
	sess, err := g.client.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return stripeSessionState(sess), nil
}

func stripeSessionState(sess *stripe.CheckoutSession) *SessionState {
	state := &SessionState{
		ID:      sess.ID,
		Paid:    sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired: sess.Status == stripe.CheckoutSessionStatusExpired,
		Amount:  sess.AmountTotal,
	}
	if sess.PaymentIntent != nil {
		state.PaymentID = sess.PaymentIntent.ID
	}
	return state
}
