package reconciliation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

var capturableFrom = []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusFailed}

// capture moves the session's order to completed/confirmed, takes its lines
// from stock and clears the owner's cart, all in one transaction.
func (s *service) capture(ctx context.Context, source, sessionID, paymentID string) (*Result, error) {
	var result *Result
	var shortfalls []stock.ShortageItem

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shortfalls = nil
		order, err := s.orders.WithTx(tx).FindByGatewaySession(ctx, sessionID)
		if err != nil {
			return lookupError(sessionID, err)
		}
		if order.PaymentStatus == enums.PaymentStatusCompleted {
			result = newResult(order, OutcomeAlreadyProcessed)
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"payment_status": enums.PaymentStatusCompleted,
			"status":         enums.OrderStatusConfirmed,
			"paid_at":        now,
		}
		if paymentID != "" {
			updates["payment_id"] = paymentID
		}
		res := tx.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND payment_status IN ?", order.ID, capturableFrom).
			Updates(updates)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "complete order payment")
		}
		if res.RowsAffected == 0 {
			// Another delivery won the conditional update.
			current, err := s.orders.WithTx(tx).FindByID(ctx, order.ID)
			if err != nil {
				return lookupError(sessionID, err)
			}
			result = newResult(current, OutcomeAlreadyProcessed)
			return nil
		}

		ledger := s.ledger.WithTx(tx)
		for _, line := range order.Lines {
			key := stock.Key{ProductID: line.ProductID, Color: line.Color, Size: line.Size}
			if _, err := ledger.Decrement(ctx, key, line.Quantity); err != nil {
				item, reason, ok := shortageFor(key, line.Quantity, err)
				if !ok {
					return err
				}
				if err := ledger.RecordShortfall(ctx, order.ID, item, reason); err != nil {
					return err
				}
				shortfalls = append(shortfalls, item)
			}
		}
		if len(shortfalls) > 0 {
			if err := tx.WithContext(ctx).
				Model(&models.Order{}).
				Where("id = ?", order.ID).
				Update("stock_shortfall", true).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag stock shortfall")
			}
		}

		if owner, err := identity.FromOwner(order.UserID, order.SessionToken); err == nil {
			if err := s.carts(tx).ClearOwner(ctx, owner); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}

		if _, err := s.transactions.WithTx(tx).MarkStatus(ctx, sessionID, enums.PaymentStatusCompleted, paymentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transaction completed")
		}

		order.PaymentStatus = enums.PaymentStatusCompleted
		order.Status = enums.OrderStatusConfirmed
		order.StockShortfall = len(shortfalls) > 0
		if paymentID != "" {
			order.PaymentID = &paymentID
		}
		result = newResult(order, OutcomeCaptured)
		return nil
	})
	if err != nil {
		s.metrics.IncTransition(source, "error")
		return nil, err
	}

	s.metrics.IncTransition(source, string(result.Outcome))
	ctx = s.orderContext(ctx, result)
	for _, item := range shortfalls {
		s.metrics.IncShortfall()
		if s.logg != nil {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{
				"product_id": item.ProductID.String(),
				"color":      item.Color,
				"size":       item.Size,
				"requested":  item.Requested,
				"available":  item.Available,
			}), "stock shortfall on paid order", errors.New("variant stock below ordered quantity"))
		}
	}
	if s.logg != nil && result.Outcome == OutcomeCaptured {
		s.logg.Info(s.logg.WithField(ctx, "source", source), "payment captured")
	}
	return result, nil
}

// fail moves a pending order to failed/cancelled. Completed orders are left alone.
func (s *service) fail(ctx context.Context, source, sessionID string) (*Result, error) {
	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByGatewaySession(ctx, sessionID)
		if err != nil {
			return lookupError(sessionID, err)
		}
		if order.PaymentStatus != enums.PaymentStatusPending {
			result = newResult(order, OutcomeAlreadyProcessed)
			return nil
		}

		res := tx.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", order.ID, enums.PaymentStatusPending).
			Updates(map[string]any{
				"payment_status": enums.PaymentStatusFailed,
				"status":         enums.OrderStatusCancelled,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "fail order payment")
		}
		if res.RowsAffected == 0 {
			current, err := s.orders.WithTx(tx).FindByID(ctx, order.ID)
			if err != nil {
				return lookupError(sessionID, err)
			}
			result = newResult(current, OutcomeAlreadyProcessed)
			return nil
		}
		if _, err := s.transactions.WithTx(tx).MarkStatus(ctx, sessionID, enums.PaymentStatusFailed, ""); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transaction failed")
		}

		order.PaymentStatus = enums.PaymentStatusFailed
		order.Status = enums.OrderStatusCancelled
		result = newResult(order, OutcomeFailed)
		return nil
	})
	if err != nil {
		s.metrics.IncTransition(source, "error")
		return nil, err
	}
	s.metrics.IncTransition(source, string(result.Outcome))
	if s.logg != nil && result.Outcome == OutcomeFailed {
		s.logg.Warn(s.orderContext(ctx, result), "payment failed")
	}
	return result, nil
}

// shortageFor converts a decrement failure into a shortfall row. Errors other
// than missing variants or short stock abort the transition.
func shortageFor(key stock.Key, qty int, err error) (stock.ShortageItem, string, bool) {
	key = key.Normalize()
	item := stock.ShortageItem{ProductID: key.ProductID, Color: key.Color, Size: key.Size, Requested: qty}
	switch {
	case pkgerrors.Is(err, pkgerrors.CodeInsufficientStock):
		if items := stock.ShortageFrom(err); len(items) > 0 {
			item.Available = items[0].Available
		}
		return item, stock.ShortfallReasonInsufficient, true
	case pkgerrors.Is(err, pkgerrors.CodeNotFound):
		return item, stock.ShortfallReasonVariantMissing, true
	default:
		return item, "", false
	}
}

func lookupError(sessionID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return OrderNotFoundForSession(sessionID)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

// OrderNotFoundForSession is returned when no order carries the gateway session.
func OrderNotFoundForSession(sessionID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]any{"kind": "order", "session_id": sessionID})
}
