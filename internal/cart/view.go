package cart

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/bulkwear-backend/internal/pricing"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

// View is the priced cart returned to clients. Unavailable lines are listed
// but excluded from every total.
type View struct {
	ID            *uuid.UUID     `json:"id,omitempty"`
	Version       int64          `json:"version"`
	Items         []ItemView     `json:"items"`
	TotalQuantity int            `json:"total_quantity"`
	BulkThreshold int            `json:"bulk_threshold"`
	IsBulk        bool           `json:"is_bulk"`
	Subtotal      int64          `json:"subtotal"`
	Tax           int64          `json:"tax_amount"`
	Shipping      int64          `json:"shipping_amount"`
	Total         int64          `json:"total_amount"`
	Currency      enums.Currency `json:"currency"`
}

// ItemView is one cart line with its live price.
type ItemView struct {
	ProductID   uuid.UUID  `json:"product_id"`
	ProductName string     `json:"product_name,omitempty"`
	Color       string     `json:"color"`
	Size        enums.Size `json:"size"`
	Quantity    int        `json:"quantity"`
	UnitPrice   int64      `json:"unit_price"`
	LineTotal   int64      `json:"line_total"`
	Unavailable bool       `json:"unavailable"`
}

func emptyView(rules pricing.Rules) *View {
	return &View{
		Items:         []ItemView{},
		BulkThreshold: rules.DefaultBulkThreshold,
		Currency:      rules.Currency,
	}
}

func (s *service) buildView(ctx context.Context, cart *models.Cart) (*View, error) {
	view := emptyView(s.pricing.Rules())
	id := cart.ID
	view.ID = &id
	view.Version = cart.Version
	if len(cart.Lines) == 0 {
		return view, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products(nil).ProductsByID(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	priceable := make([]pricing.Line, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		if p, ok := products[l.ProductID]; ok && p.IsActive {
			priceable = append(priceable, pricing.Line{ProductID: l.ProductID, Color: l.Color, Size: l.Size, Quantity: l.Quantity})
		}
	}

	var quote *pricing.Quote
	if len(priceable) > 0 {
		quote, err = s.pricing.Quote(priceable, products)
		if err != nil {
			return nil, err
		}
		view.TotalQuantity = quote.TotalQuantity
		view.BulkThreshold = quote.BulkThreshold
		view.IsBulk = quote.IsBulk
		view.Subtotal = quote.Subtotal
		view.Tax = quote.Tax
		view.Shipping = quote.Shipping
		view.Total = quote.Total
	}

	next := 0
	for _, l := range cart.Lines {
		item := ItemView{ProductID: l.ProductID, Color: l.Color, Size: l.Size, Quantity: l.Quantity}
		if p, ok := products[l.ProductID]; ok && p.IsActive {
			quoted := quote.Lines[next]
			next++
			item.ProductName = p.Name
			item.UnitPrice = quoted.UnitPrice
			item.LineTotal = quoted.LineTotal
		} else {
			item.Unavailable = true
			if ok {
				item.ProductName = p.Name
			}
		}
		view.Items = append(view.Items, item)
	}
	return view, nil
}
