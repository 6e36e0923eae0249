package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bulkwear-backend/api/middleware"
	"github.com/angelmondragon/bulkwear-backend/api/responses"
	"github.com/angelmondragon/bulkwear-backend/api/validators"
	"github.com/angelmondragon/bulkwear-backend/internal/catalog"
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
)

const maxSearchLen = 100

// ProductStockReader lists a product's variant stock.
type ProductStockReader interface {
	GetStock(ctx context.Context, productID uuid.UUID) ([]stock.VariantStock, error)
}

// ProductList lists products filtered by category, search term and active
// flag. Inactive products are only listed for admins.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		includeInactive := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("active")), "false")
		if includeInactive {
			caller, ok := middleware.IdentityFromContext(r.Context())
			includeInactive = ok && caller.IsAdmin()
		}

		products, err := svc.ListProducts(r.Context(), catalog.ListProductsInput{
			CategoryID:      categoryID,
			IncludeInactive: includeInactive,
			Search:          validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLen),
			Limit:           limit,
			Offset:          offset,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}

func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductStock(ledger ProductStockReader, logg *logger.Logger) http.HandlerFunc {
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
		variants, err := ledger.GetStock(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_id": productID, "variants": variants})
	}
}

func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}
