// Package pricing turns cart lines into a priced quote. Pricing is a pure
// function of the lines and a read-only product lookup.
package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

// ProductLookup resolves products by id. Missing ids are absent from the result.
type ProductLookup interface {
	ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Line is one requested (product, color, size, quantity).
type Line struct {
	ProductID uuid.UUID  `json:"product_id"`
	Color     string     `json:"color"`
	Size      enums.Size `json:"size"`
	Quantity  int        `json:"quantity"`
}

// QuotedLine is a line with its resolved unit price.
type QuotedLine struct {
	Line
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

// Quote is the priced result. All amounts are minor units.
type Quote struct {
	Lines         []QuotedLine   `json:"lines"`
	TotalQuantity int            `json:"total_quantity"`
	BulkThreshold int            `json:"bulk_threshold"`
	IsBulk        bool           `json:"is_bulk"`
	Subtotal      int64          `json:"subtotal"`
	Tax           int64          `json:"tax_amount"`
	Shipping      int64          `json:"shipping_amount"`
	Total         int64          `json:"total_amount"`
	Currency      enums.Currency `json:"currency"`
}

// Rules are the global pricing constants.
type Rules struct {
	Currency              enums.Currency
	TaxRate               decimal.Decimal
	DefaultBulkThreshold  int
	FreeShippingThreshold int64
	FlatShipping          int64
}

// RulesFromConfig parses PricingConfig into Rules.
func RulesFromConfig(cfg config.PricingConfig) (Rules, error) {
	rate, err := cfg.TaxRateDecimal()
	if err != nil {
		return Rules{}, err
	}
	currency, err := enums.ParseCurrency(cfg.Currency)
	if err != nil {
		return Rules{}, err
	}
	return Rules{
		Currency:              currency,
		TaxRate:               rate,
		DefaultBulkThreshold:  cfg.DefaultBulkThreshold,
		FreeShippingThreshold: cfg.FreeShippingThresholdMinor,
		FlatShipping:          cfg.FlatShippingMinor,
	}, nil
}

// Engine prices lines against the catalog.
type Engine struct {
	rules  Rules
	lookup ProductLookup
}

func NewEngine(rules Rules, lookup ProductLookup) (*Engine, error) {
	if lookup == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if rules.DefaultBulkThreshold <= 0 {
		return nil, fmt.Errorf("default bulk threshold must be positive")
	}
	return &Engine{rules: rules, lookup: lookup}, nil
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// Price resolves every product and computes the quote. A missing or inactive
// product fails the whole quote.
func (e *Engine) Price(ctx context.Context, lines []Line) (*Quote, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	products, err := e.lookup.ProductsByID(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products for pricing")
	}
	return Compute(e.rules, lines, products)
}

// Quote prices lines against already resolved products.
func (e *Engine) Quote(lines []Line, products map[uuid.UUID]models.Product) (*Quote, error) {
	return Compute(e.rules, lines, products)
}

// Compute is the pure pricing function.
func Compute(rules Rules, lines []Line, products map[uuid.UUID]models.Product) (*Quote, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	threshold := 0
	totalQty := 0
	for _, l := range lines {
		product, ok := products[l.ProductID]
		if !ok || !product.IsActive {
			return nil, productNotFound(l.ProductID)
		}
		if product.BulkThreshold > threshold {
			threshold = product.BulkThreshold
		}
		totalQty += l.Quantity
	}
	if threshold <= 0 {
		threshold = rules.DefaultBulkThreshold
	}
	isBulk := totalQty >= threshold

	quote := &Quote{
		Lines:         make([]QuotedLine, 0, len(lines)),
		TotalQuantity: totalQty,
		BulkThreshold: threshold,
		IsBulk:        isBulk,
		Currency:      rules.Currency,
	}
	for _, l := range lines {
		product := products[l.ProductID]
		unit := product.BasePrice
		if isBulk {
			unit = product.BulkPrice
		}
		lineTotal := unit * int64(l.Quantity)
		quote.Lines = append(quote.Lines, QuotedLine{
			Line:        l,
			ProductName: product.Name,
			UnitPrice:   unit,
			LineTotal:   lineTotal,
		})
		quote.Subtotal += lineTotal
	}

	quote.Tax = Tax(quote.Subtotal, rules.TaxRate)
	quote.Shipping = Shipping(quote.Subtotal, rules.FreeShippingThreshold, rules.FlatShipping)
	quote.Total = quote.Subtotal + quote.Tax + quote.Shipping
	return quote, nil
}

// Tax is subtotal × rate rounded half up to a whole minor unit.
func Tax(subtotal int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotal).Mul(rate).Round(0).IntPart()
}

// Shipping is free strictly above the threshold, flat otherwise.
func Shipping(subtotal, freeThreshold, flat int64) int64 {
	if subtotal > freeThreshold {
		return 0
	}
	return flat
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
		}
		if l.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": l.ProductID, "quantity": l.Quantity})
		}
	}
	return nil
}

func productNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
		WithDetails(map[string]any{"kind": "product", "product_id": id})
}
