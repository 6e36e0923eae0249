package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
	"github.com/angelmondragon/bulkwear-backend/pkg/pagination"
)

// Service exposes order reads and admin fulfillment transitions. Payment
// state is owned by reconciliation and never changed here.
type Service interface {
	Get(ctx context.Context, caller identity.Identity, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, caller identity.Identity, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the order service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, caller identity.Identity, id uuid.UUID) (*OrderDTO, error) {
	if !caller.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity missing")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, OrderNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	// Foreign orders read as missing so ids cannot be probed.
	if !caller.IsAdmin() && !caller.Owns(order.UserID, order.SessionToken) {
		return nil, OrderNotFound(id)
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, caller identity.Identity, params pagination.Params) (*OrderList, error) {
	if !caller.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity missing")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListForOwner(ctx, caller, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Orders = append(out.Orders, NewOrderDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, OrderNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !order.Status.CanFulfillTo(next) {
		return nil, transitionRejected(order.Status, next)
	}

	ok, err := s.repo.UpdateFulfillment(ctx, id, enums.FulfillmentSources(next), next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		// Status moved between the read and the conditional update.
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil, transitionRejected(current.Status, next)
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, id.String())
		s.logg.Info(ctx, fmt.Sprintf("order status %s -> %s", order.Status, next))
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	dto := NewOrderDTO(updated)
	return &dto, nil
}

// OrderNotFound is the typed error for a missing or foreign order.
func OrderNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]any{"kind": "order", "order_id": id})
}

func transitionRejected(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}
