package stripe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

type fakeSessions struct {
	created *stripe.CheckoutSessionParams
	gotID   string
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	return f.session, f.err
}

func (f *fakeSessions) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.gotID = id
	return f.session, f.err
}

func TestNewClientValidatesKeyAgainstEnv(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.StripeConfig{Env: "test"}, nil)
	assert.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_live_abc", Env: "test"}, nil)
	assert.Error(t, err)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", Env: "staging"}, nil)
	assert.ErrorIs(t, err, errInvalidStripeEnv)

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
}

func TestCreateCheckoutSessionBuildsParams(t *testing.T) {
	fake := &fakeSessions{session: &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}}
	client := &Client{environment: testEnv, sessions: fake}

	sess, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		Currency:       "INR",
		ReferenceID:    "rcpt_abc",
		CustomerEmail:  "buyer@example.com",
		SuccessURL:     "https://shop.test/success",
		CancelURL:      "https://shop.test/cancel",
		Metadata:       map[string]string{"order_id": "abc"},
		LineItems:      []LineItem{{Name: "Tee", UnitAmount: 29900, Quantity: 2}},
		IdempotencyKey: "rcpt_abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)

	params := fake.created
	require.NotNil(t, params)
	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "rcpt_abc", *params.ClientReferenceID)
	assert.Equal(t, "buyer@example.com", *params.CustomerEmail)
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, "inr", *params.LineItems[0].PriceData.Currency)
	assert.Equal(t, int64(29900), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *params.LineItems[0].Quantity)
	assert.Equal(t, "abc", params.Metadata["order_id"])
	assert.Equal(t, "rcpt_abc", *params.IdempotencyKey)
}

func TestCreateCheckoutSessionRequiresLines(t *testing.T) {
	client := &Client{sessions: &fakeSessions{}}
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestGetCheckoutSessionMapsErrors(t *testing.T) {
	fake := &fakeSessions{err: errors.New("connection reset")}
	client := &Client{sessions: fake}

	_, err := client.GetCheckoutSession(context.Background(), "cs_test_2")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
	assert.Equal(t, "cs_test_2", fake.gotID)

	fake.err = &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: 404}
	_, err = client.GetCheckoutSession(context.Background(), "cs_missing")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	var nilClient *Client
	_, err = nilClient.GetCheckoutSession(context.Background(), "x")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}
