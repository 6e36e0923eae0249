package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

// sessionAPI is the slice of the Checkout Sessions API the client uses.
type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type legacySessionAPI struct{}

func (legacySessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (legacySessionAPI) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.Get(id, params)
}

// LineItem is one priced product line on a hosted checkout page.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CheckoutParams describes a hosted payment-mode Checkout Session.
type CheckoutParams struct {
	Currency       string
	ReferenceID    string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	LineItems      []LineItem
	IdempotencyKey string
}

// CreateCheckoutSession opens a Checkout Session for the given line items.
func (c *Client) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*stripe.CheckoutSession, error) {
	if c == nil || c.sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe client not configured")
	}
	if len(in.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session requires line items")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(in.ReferenceID),
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
	}
	params.Context = ctx
	if email := strings.TrimSpace(in.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	currency := strings.ToLower(in.Currency)
	for _, item := range in.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	sess, err := c.sessions.New(params)
	if err != nil {
		c.logError(ctx, "checkout.session.create", err)
		return nil, mapStripeError(err, "create checkout session")
	}
	return sess, nil
}

// GetCheckoutSession fetches a Checkout Session with its PaymentIntent expanded.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	if c == nil || c.sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe client not configured")
	}
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id is required")
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := c.sessions.Get(id, params)
	if err != nil {
		c.logError(ctx, "checkout.session.get", err)
		return nil, mapStripeError(err, "fetch checkout session")
	}
	return sess, nil
}

func (c *Client) logError(ctx context.Context, op string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Error(ctx, fmt.Sprintf("stripe %s failed", op), err)
}

// mapStripeError converts SDK errors into typed errors. Invalid requests map to
// validation, everything else is a dependency failure.
func mapStripeError(err error, op string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeInvalidRequest:
			if stripeErr.HTTPStatusCode == 404 {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, op).
					WithDetails(map[string]any{"kind": "checkout_session"})
			}
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, op)
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
