package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/bulkwear-backend/api/middleware"
	"github.com/angelmondragon/bulkwear-backend/api/responses"
	"github.com/angelmondragon/bulkwear-backend/api/validators"
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
)

// StockAdmin is the ledger surface used by the stock endpoints.
type StockAdmin interface {
	Summary(ctx context.Context) ([]stock.VariantStock, error)
	LowStock(ctx context.Context, threshold int) ([]stock.VariantStock, error)
	SetQuantity(ctx context.Context, key stock.Key, qty int) (*stock.VariantStock, error)
	ListShortfalls(ctx context.Context, limit int) ([]stock.Shortfall, error)
}

type setStockRequest struct {
	Color    string     `json:"color" validate:"required,max=50"`
	Size     enums.Size `json:"size" validate:"required,max=5"`
	Quantity *int       `json:"quantity" validate:"required,min=0,max=1000000"`
}

// LiveStock returns every active variant with its stock status.
func LiveStock(ledger StockAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger unavailable"))
			return
		}
		variants, err := ledger.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"variants": variants})
	}
}

func AdminLowStock(ledger StockAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger unavailable"))
			return
		}
		threshold, err := validators.ParseQueryInt(r, "threshold", stock.DefaultLowStockThreshold, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variants, err := ledger.LowStock(r.Context(), threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"threshold": threshold, "variants": variants})
	}
}

func AdminShortfalls(ledger StockAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shortfalls, err := ledger.ListShortfalls(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"shortfalls": shortfalls})
	}
}

// AdminSetStock overwrites one variant's stock with an absolute quantity.
func AdminSetStock(ledger StockAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key := stock.Key{ProductID: productID, Color: payload.Color, Size: payload.Size}.Normalize()
		if !key.Size.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid size").
				WithDetails(map[string]any{"size": payload.Size}))
			return
		}

		updated, err := ledger.SetQuantity(r.Context(), key, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"variant":  key.String(),
				"quantity": updated.StockQuantity,
			})
			if caller, ok := middleware.IdentityFromContext(ctx); ok {
				ctx = logg.WithField(ctx, "actor", caller.String())
			}
			logg.Info(ctx, "stock.set")
		}
		responses.WriteSuccess(w, updated)
	}
}
