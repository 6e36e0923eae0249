// Package reconciliation is the only place payment state changes and stock is
// decremented. Client verification, gateway webhooks and status polls all
// converge on the same conditional transition.
package reconciliation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/internal/orders"
	"github.com/angelmondragon/bulkwear-backend/internal/payments"
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
	"github.com/angelmondragon/bulkwear-backend/pkg/metrics"
)

const (
	SourceVerify  = "verify"
	SourceWebhook = "webhook"
	SourcePoll    = "poll"
)

// Outcome describes what a reconciliation call did.
type Outcome string

const (
	OutcomeCaptured         Outcome = "captured"
	OutcomeFailed           Outcome = "failed"
	OutcomePending          Outcome = "pending"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeDuplicate        Outcome = "duplicate_delivery"
	OutcomeIgnored          Outcome = "ignored"
)

// Result is returned by every entry point.
type Result struct {
	OrderID          uuid.UUID           `json:"order_id,omitempty"`
	SessionID        string              `json:"session_id,omitempty"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status,omitempty"`
	OrderStatus      enums.OrderStatus   `json:"order_status,omitempty"`
	Outcome          Outcome             `json:"outcome"`
	AlreadyProcessed bool                `json:"already_processed"`
	StockShortfall   bool                `json:"stock_shortfall"`
}

// VerifyInput is a client-submitted payment confirmation.
type VerifyInput struct {
	SessionID string `json:"session_id" validate:"required,max=255"`
	PaymentID string `json:"payment_id" validate:"required,max=255"`
	Signature string `json:"signature" validate:"required,hexadecimal,len=64"`
}

// WebhookInput is a raw gateway delivery.
type WebhookInput struct {
	Body      []byte
	Signature string
	EventID   string
}

// DeliveryGuard de-duplicates webhook deliveries.
type DeliveryGuard interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// CartClearer empties an owner's cart.
type CartClearer interface {
	ClearOwner(ctx context.Context, owner identity.Identity) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the reconciliation entry points.
type Service interface {
	Verify(ctx context.Context, input VerifyInput) (*Result, error)
	HandleWebhook(ctx context.Context, input WebhookInput) (*Result, error)
	PollStatus(ctx context.Context, sessionID string) (*Result, error)
}

// ServiceParams groups the reconciliation collaborators. Carts is called with
// the active transaction.
type ServiceParams struct {
	Tx            txRunner
	Orders        orders.Repository
	Ledger        *stock.Ledger
	Transactions  *payments.TransactionRepository
	Carts         func(tx *gorm.DB) CartClearer
	Gateway       payments.Gateway
	Guard         DeliveryGuard
	SigningSecret string
	WebhookSecret string
	Metrics       *metrics.PaymentMetrics
	Logger        *logger.Logger
}

type service struct {
	tx            txRunner
	orders        orders.Repository
	ledger        *stock.Ledger
	transactions  *payments.TransactionRepository
	carts         func(tx *gorm.DB) CartClearer
	gateway       payments.Gateway
	guard         DeliveryGuard
	signingSecret string
	webhookSecret string
	metrics       *metrics.PaymentMetrics
	logg          *logger.Logger
}

// NewService builds the reconciliation service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("stock ledger required")
	case params.Transactions == nil:
		return nil, fmt.Errorf("transaction repository required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart clearer required")
	case strings.TrimSpace(params.SigningSecret) == "":
		return nil, fmt.Errorf("signing secret required")
	}
	return &service{
		tx:            params.Tx,
		orders:        params.Orders,
		ledger:        params.Ledger,
		transactions:  params.Transactions,
		carts:         params.Carts,
		gateway:       params.Gateway,
		guard:         params.Guard,
		signingSecret: params.SigningSecret,
		webhookSecret: strings.TrimSpace(params.WebhookSecret),
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

func (s *service) Verify(ctx context.Context, input VerifyInput) (*Result, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	paymentID := strings.TrimSpace(input.PaymentID)
	if sessionID == "" || paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id and payment_id are required")
	}
	if err := checkSignature(s.signingSecret, VerificationPayload(sessionID, paymentID), input.Signature); err != nil {
		s.metrics.IncTransition(SourceVerify, "invalid_signature")
		return nil, err
	}
	return s.capture(ctx, SourceVerify, sessionID, paymentID)
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (s *service) HandleWebhook(ctx context.Context, input WebhookInput) (*Result, error) {
	if strings.TrimSpace(input.Signature) == "" {
		return nil, MissingSignature()
	}
	if s.webhookSecret != "" {
		if err := checkSignature(s.webhookSecret, input.Body, input.Signature); err != nil {
			s.metrics.IncTransition(SourceWebhook, "invalid_signature")
			return nil, err
		}
	} else if s.logg != nil {
		s.logg.Warn(ctx, "payment webhook secret not configured; accepting unverified signature header")
	}

	var payload webhookPayload
	if err := json.Unmarshal(input.Body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}
	event, err := enums.ParsePaymentEvent(payload.Event)
	if err != nil {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event", payload.Event), "ignoring payment webhook event")
		}
		return &Result{Outcome: OutcomeIgnored}, nil
	}
	entity := payload.Payload.Payment.Entity
	sessionID := strings.TrimSpace(entity.OrderID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payment entity missing order_id")
	}

	deliveryID := webhookDeliveryID(input.EventID, input.Body)
	claimed := s.claim(ctx, deliveryID)
	if !claimed {
		return &Result{SessionID: sessionID, Outcome: OutcomeDuplicate, AlreadyProcessed: true}, nil
	}

	var result *Result
	switch event {
	case enums.PaymentEventCaptured:
		result, err = s.capture(ctx, SourceWebhook, sessionID, strings.TrimSpace(entity.ID))
	case enums.PaymentEventFailed:
		result, err = s.fail(ctx, SourceWebhook, sessionID)
	}
	if err != nil {
		s.release(ctx, deliveryID)
		return nil, err
	}
	return result, nil
}

func (s *service) PollStatus(ctx context.Context, sessionID string) (*Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	order, err := s.orders.FindByGatewaySession(ctx, sessionID)
	if err != nil {
		return nil, lookupError(sessionID, err)
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return newResult(order, OutcomeAlreadyProcessed), nil
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}

	state, err := s.gateway.FetchSession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment session")
	}
	switch {
	case state.Paid:
		if state.Amount != 0 && state.Amount != order.TotalAmount && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{
				"gateway_amount": state.Amount,
				"order_amount":   order.TotalAmount,
			}), "gateway amount differs from order total")
		}
		return s.capture(ctx, SourcePoll, sessionID, state.PaymentID)
	case state.Expired:
		return s.fail(ctx, SourcePoll, sessionID)
	default:
		return newResult(order, OutcomePending), nil
	}
}

// webhookDeliveryID keys the delivery guard. The body hash stands in for the
// delivery id only when the gateway sends no event id.
func webhookDeliveryID(eventID string, body []byte) string {
	if id := strings.TrimSpace(eventID); id != "" {
		return id
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func (s *service) claim(ctx context.Context, deliveryID string) bool {
	if s.guard == nil {
		return true
	}
	claimed, err := s.guard.Claim(ctx, deliveryID)
	if err != nil {
		// The conditional transition still keeps redelivery safe.
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "delivery_id", deliveryID), "webhook guard unavailable: "+err.Error())
		}
		return true
	}
	return claimed
}

func (s *service) release(ctx context.Context, deliveryID string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Release(ctx, deliveryID); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "delivery_id", deliveryID), "release webhook guard", err)
	}
}

func (s *service) orderContext(ctx context.Context, result *Result) context.Context {
	if s.logg == nil || result == nil {
		return ctx
	}
	return s.logg.WithOrderID(ctx, result.OrderID.String())
}

func newResult(order *models.Order, outcome Outcome) *Result {
	result := &Result{
		OrderID:        order.ID,
		PaymentStatus:  order.PaymentStatus,
		OrderStatus:    order.Status,
		Outcome:        outcome,
		StockShortfall: order.StockShortfall,
	}
	if order.GatewaySessionID != nil {
		result.SessionID = *order.GatewaySessionID
	}
	result.AlreadyProcessed = outcome == OutcomeAlreadyProcessed
	return result
}
