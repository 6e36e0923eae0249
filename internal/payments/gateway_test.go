package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/square"
	pkgstripe "github.com/angelmondragon/bulkwear-backend/pkg/stripe"
)

type fakeStripe struct {
	created *pkgstripe.CheckoutParams
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeStripe) CreateCheckoutSession(_ context.Context, in pkgstripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	f.created = &in
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeStripe) GetCheckoutSession(_ context.Context, _ string) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeSquare struct {
	created *square.OrderCreateParams
	order   *sq.Order
}

func (f *fakeSquare) CreateOrder(_ context.Context, params square.OrderCreateParams) (*sq.Order, error) {
	f.created = &params
	return f.order, nil
}

func (f *fakeSquare) GetOrder(_ context.Context, _ string) (*sq.Order, error) {
	return f.order, nil
}

func (f *fakeSquare) ApplicationID() string { return "sandbox-app" }
func (f *fakeSquare) LocationID() string    { return "L1" }

func sampleRequest() SessionRequest {
	return SessionRequest{
		OrderID:  uuid.New(),
		Receipt:  "rcpt_abc",
		Amount:   70564,
		Currency: enums.CurrencyINR,
		Email:    "buyer@example.com",
		Metadata: map[string]string{"session": "anon:1234"},
		Lines: []SessionLine{
			{Name: "Classic Tee / Black / M", UnitAmount: 29900, Quantity: 2},
			{Name: "GST", UnitAmount: 10764, Quantity: 1},
		},
		IdempotencyKey: "idem-1",
	}
}

func TestStripeGatewayOpenSession(t *testing.T) {
	fake := &fakeStripe{session: &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}}
	gw, err := NewStripeGateway(fake, "https://shop/success", "https://shop/cancel")
	require.NoError(t, err)

	req := sampleRequest()
	sess, err := gw.OpenSession(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, enums.PaymentProviderStripe, sess.Provider)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", sess.LaunchParams["checkout_url"])

	require.NotNil(t, fake.created)
	assert.Equal(t, "INR", fake.created.Currency)
	assert.Equal(t, "rcpt_abc", fake.created.ReferenceID)
	assert.Equal(t, req.OrderID.String(), fake.created.Metadata["order_id"])
	assert.Equal(t, "anon:1234", fake.created.Metadata["session"])
	assert.Equal(t, "idem-1", fake.created.IdempotencyKey)
	require.Len(t, fake.created.LineItems, 2)
	assert.Equal(t, int64(2), fake.created.LineItems[0].Quantity)
}

func TestStripeGatewayPropagatesErrors(t *testing.T) {
	fake := &fakeStripe{err: pkgerrors.New(pkgerrors.CodeDependency, "stripe down")}
	gw, err := NewStripeGateway(fake, "", "")
	require.NoError(t, err)

	_, err = gw.OpenSession(context.Background(), sampleRequest())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	bad := sampleRequest()
	bad.Lines = nil
	_, err = gw.OpenSession(context.Background(), bad)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestStripeSessionState(t *testing.T) {
	paid := stripeSessionState(&stripe.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Status:        stripe.CheckoutSessionStatusComplete,
		AmountTotal:   70564,
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
	})
	assert.True(t, paid.Paid)
	assert.False(t, paid.Expired)
	assert.Equal(t, "pi_1", paid.PaymentID)
	assert.Equal(t, int64(70564), paid.Amount)

	expired := stripeSessionState(&stripe.CheckoutSession{
		ID:            "cs_2",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Status:        stripe.CheckoutSessionStatusExpired,
	})
	assert.False(t, expired.Paid)
	assert.True(t, expired.Expired)
	assert.Empty(t, expired.PaymentID)
}

func TestSquareGatewayOpenSession(t *testing.T) {
	orderID := "sq_order_1"
	fake := &fakeSquare{order: &sq.Order{ID: &orderID}}
	gw, err := NewSquareGateway(fake)
	require.NoError(t, err)

	sess, err := gw.OpenSession(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, orderID, sess.ID)
	assert.Equal(t, enums.PaymentProviderSquare, sess.Provider)
	assert.Equal(t, "sandbox-app", sess.LaunchParams["application_id"])
	assert.Equal(t, "L1", sess.LaunchParams["location_id"])
	assert.Equal(t, "70564", sess.LaunchParams["amount"])

	require.NotNil(t, fake.created)
	assert.Equal(t, "rcpt_abc", fake.created.ReferenceID)
	require.Len(t, fake.created.LineItems, 2)
	assert.Equal(t, 2, fake.created.LineItems[0].Quantity)
}

func TestSquareSessionState(t *testing.T) {
	completed := sq.OrderStateCompleted
	paymentID := "pay_1"
	amount := int64(70564)
	state := squareSessionState("sq_1", &sq.Order{
		State:      &completed,
		Tenders:    []*sq.Tender{{PaymentID: &paymentID}},
		TotalMoney: &sq.Money{Amount: &amount},
	})
	assert.True(t, state.Paid)
	assert.Equal(t, "pay_1", state.PaymentID)
	assert.Equal(t, amount, state.Amount)

	canceled := sq.OrderStateCanceled
	assert.True(t, squareSessionState("sq_2", &sq.Order{State: &canceled}).Expired)

	open := sq.OrderStateOpen
	pending := squareSessionState("sq_3", &sq.Order{State: &open})
	assert.False(t, pending.Paid)
	assert.False(t, pending.Expired)
}

func TestSelect(t *testing.T) {
	stripeGW, err := NewStripeGateway(&fakeStripe{}, "", "")
	require.NoError(t, err)
	squareGW, err := NewSquareGateway(&fakeSquare{})
	require.NoError(t, err)

	got, err := Select(config.PaymentsConfig{Provider: "Stripe"}, stripeGW, squareGW)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentProviderStripe, got.Provider())

	got, err = Select(config.PaymentsConfig{Provider: "square"}, stripeGW, squareGW)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentProviderSquare, got.Provider())

	_, err = Select(config.PaymentsConfig{Provider: "square"}, stripeGW, nil)
	assert.Error(t, err)

	_, err = Select(config.PaymentsConfig{Provider: "paypal"}, stripeGW, squareGW)
	assert.Error(t, err)
}
