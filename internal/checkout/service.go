// Package checkout turns an identity's cart into a pending order and opens a
// payment gateway session for it. It never changes stock or payment state.
package checkout

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/internal/orders"
	"github.com/angelmondragon/bulkwear-backend/internal/payments"
	"github.com/angelmondragon/bulkwear-backend/internal/pricing"
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
	"github.com/angelmondragon/bulkwear-backend/pkg/metrics"
	"github.com/angelmondragon/bulkwear-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartReader returns the identity's cart lines.
type CartReader interface {
	Lines(ctx context.Context, owner identity.Identity) ([]pricing.Line, error)
}

// Pricer quotes cart lines on current catalog prices.
type Pricer interface {
	Price(ctx context.Context, lines []pricing.Line) (*pricing.Quote, error)
}

// StockReader reports the units available for a variant.
type StockReader interface {
	Available(ctx context.Context, key stock.Key) (int, error)
}

// Service opens checkout sessions.
type Service interface {
	CreateSession(ctx context.Context, owner identity.Identity, input CreateSessionInput) (*SessionResult, error)
}

// Contact is how the buyer is reached about the order.
type Contact struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"required,min=7,max=20"`
}

// CreateSessionInput is the buyer-provided part of an order.
type CreateSessionInput struct {
	Contact         Contact
	ShippingAddress types.Address
	BillingAddress  *types.Address
	Notes           *string
}

// SessionResult is returned to the client to launch the gateway's payment UI.
type SessionResult struct {
	OrderID           uuid.UUID             `json:"order_id"`
	GatewaySessionRef string                `json:"gateway_session_ref"`
	Amount            int64                 `json:"amount"`
	Currency          enums.Currency        `json:"currency"`
	Provider          enums.PaymentProvider `json:"provider"`
	LaunchURL         string                `json:"launch_url,omitempty"`
	LaunchParams      map[string]string     `json:"launch_params"`
}

// ServiceParams groups the checkout collaborators.
type ServiceParams struct {
	Tx           txRunner
	Cart         CartReader
	Pricing      Pricer
	Stock        StockReader
	Orders       orders.Repository
	Transactions *payments.TransactionRepository
	Gateway      payments.Gateway
	Metrics      *metrics.PaymentMetrics
	Logger       *logger.Logger
}

type service struct {
	tx           txRunner
	cart         CartReader
	pricing      Pricer
	stock        StockReader
	orders       orders.Repository
	transactions *payments.TransactionRepository
	gateway      payments.Gateway
	metrics      *metrics.PaymentMetrics
	logg         *logger.Logger
}

// NewService builds the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Cart == nil:
		return nil, fmt.Errorf("cart reader required")
	case params.Pricing == nil:
		return nil, fmt.Errorf("pricing engine required")
	case params.Stock == nil:
		return nil, fmt.Errorf("stock reader required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Transactions == nil:
		return nil, fmt.Errorf("transaction repository required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		tx:           params.Tx,
		cart:         params.Cart,
		pricing:      params.Pricing,
		stock:        params.Stock,
		orders:       params.Orders,
		transactions: params.Transactions,
		gateway:      params.Gateway,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, owner identity.Identity, input CreateSessionInput) (*SessionResult, error) {
	if !owner.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout identity missing")
	}
	started := time.Now()
	provider := s.gateway.Provider()

	lines, err := s.cart.Lines(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, EmptyCart()
	}

	quote, err := s.pricing.Price(ctx, lines)
	if err != nil {
		return nil, err
	}
	if err := s.recheckStock(ctx, quote.Lines); err != nil {
		return nil, err
	}

	order := newPendingOrder(owner, input, quote)
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.orders.WithTx(tx).Create(ctx, order)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	ctx = s.withOrder(ctx, order.ID)

	metadata := owner.Metadata()
	metadata["order_id"] = order.ID.String()
	sess, err := s.gateway.OpenSession(ctx, payments.SessionRequest{
		OrderID:        order.ID,
		Receipt:        order.Receipt,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		Email:          order.Email,
		Metadata:       metadata,
		Lines:          sessionLines(quote),
		IdempotencyKey: SessionIdempotencyKey(order.ID),
	})
	if err != nil {
		s.metrics.ObserveSession(provider.String(), "gateway_error", time.Since(started))
		if s.logg != nil {
			s.logg.Error(ctx, "open payment session failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).AttachSession(ctx, order.ID, sess.Provider, sess.ID); err != nil {
			return err
		}
		return s.transactions.WithTx(tx).Create(ctx, &models.PaymentTransaction{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Amount:    order.TotalAmount,
			Currency:  order.Currency,
			Provider:  sess.Provider,
			SessionID: sess.ID,
			Status:    enums.PaymentStatusPending,
			Metadata:  metadata,
		})
	}); err != nil {
		s.metrics.ObserveSession(provider.String(), "persist_error", time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment session")
	}

	s.metrics.ObserveSession(provider.String(), "opened", time.Since(started))
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "session_id", sess.ID), "checkout session opened")
	}

	return &SessionResult{
		OrderID:           order.ID,
		GatewaySessionRef: sess.ID,
		Amount:            order.TotalAmount,
		Currency:          order.Currency,
		Provider:          sess.Provider,
		LaunchURL:         sess.LaunchURL,
		LaunchParams:      sess.LaunchParams,
	}, nil
}

// recheckStock collects every line the ledger cannot cover right now.
func (s *service) recheckStock(ctx context.Context, lines []pricing.QuotedLine) error {
	var short []stock.ShortageItem
	for _, line := range lines {
		key := stock.Key{ProductID: line.ProductID, Color: line.Color, Size: line.Size}.Normalize()
		available, err := s.stock.Available(ctx, key)
		if err != nil {
			if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				return err
			}
			available = 0
		}
		if available < line.Quantity {
			short = append(short, stock.ShortageItem{
				ProductID: key.ProductID,
				Color:     key.Color,
				Size:      key.Size,
				Requested: line.Quantity,
				Available: available,
			})
		}
	}
	if len(short) > 0 {
		return stock.InsufficientStock(short...)
	}
	return nil
}

func (s *service) withOrder(ctx context.Context, id uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderID(ctx, id.String())
}

func newPendingOrder(owner identity.Identity, input CreateSessionInput, quote *pricing.Quote) *models.Order {
	id := uuid.New()
	order := &models.Order{
		ID:              id,
		UserID:          owner.UserIDPtr(),
		SessionToken:    owner.SessionTokenPtr(),
		Email:           strings.TrimSpace(input.Contact.Email),
		Phone:           strings.TrimSpace(input.Contact.Phone),
		ShippingAddress: input.ShippingAddress.Normalize(),
		Notes:           trimmedOrNil(input.Notes),
		IsBulk:          quote.IsBulk,
		TotalQuantity:   quote.TotalQuantity,
		Subtotal:        quote.Subtotal,
		TaxAmount:       quote.Tax,
		ShippingAmount:  quote.Shipping,
		TotalAmount:     quote.Total,
		Currency:        quote.Currency,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		Receipt:         Receipt(id),
	}
	if input.BillingAddress != nil {
		billing := input.BillingAddress.Normalize()
		order.BillingAddress = &billing
	}
	for i, line := range quote.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Color:       line.Color,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			Position:    i,
		})
	}
	return order
}

// sessionLines itemizes the quote so the gateway total equals the order total.
func sessionLines(quote *pricing.Quote) []payments.SessionLine {
	out := make([]payments.SessionLine, 0, len(quote.Lines)+2)
	for _, line := range quote.Lines {
		out = append(out, payments.SessionLine{
			Name:       fmt.Sprintf("%s / %s / %s", line.ProductName, line.Color, line.Size),
			UnitAmount: line.UnitPrice,
			Quantity:   line.Quantity,
		})
	}
	if quote.Tax > 0 {
		out = append(out, payments.SessionLine{Name: "GST", UnitAmount: quote.Tax, Quantity: 1})
	}
	if quote.Shipping > 0 {
		out = append(out, payments.SessionLine{Name: "Shipping", UnitAmount: quote.Shipping, Quantity: 1})
	}
	return out
}

// Receipt is the gateway receipt reference for an order.
func Receipt(orderID uuid.UUID) string {
	return "rcpt_" + hex.EncodeToString(orderID[:])
}

// SessionIdempotencyKey is the gateway idempotency key for an order's session.
func SessionIdempotencyKey(orderID uuid.UUID) string {
	return "session_" + Receipt(orderID)
}

// EmptyCart is returned when checkout is attempted without cart lines.
func EmptyCart() error {
	return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
