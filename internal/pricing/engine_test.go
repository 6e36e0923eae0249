package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

type stubLookup struct {
	products map[uuid.UUID]models.Product
	err      error
	calls    int
}

func (s *stubLookup) ProductsByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func testRules() Rules {
	return Rules{
		Currency:              enums.CurrencyINR,
		TaxRate:               decimal.RequireFromString("0.18"),
		DefaultBulkThreshold:  15,
		FreeShippingThreshold: 50000,
		FlatShipping:          5000,
	}
}

func product(base, bulk int64, threshold int) models.Product {
	return models.Product{ID: uuid.New(), Name: "Tee", BasePrice: base, BulkPrice: bulk, BulkThreshold: threshold, IsActive: true}
}

func TestComputeRegularOrder(t *testing.T) {
	p := product(29900, 24900, 15)
	quote, err := Compute(testRules(), []Line{{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 1}},
		map[uuid.UUID]models.Product{p.ID: p})
	require.NoError(t, err)

	assert.False(t, quote.IsBulk)
	assert.Equal(t, int64(29900), quote.Subtotal)
	assert.Equal(t, int64(5382), quote.Tax)
	assert.Equal(t, int64(5000), quote.Shipping)
	assert.Equal(t, int64(40282), quote.Total)
}

func TestComputeBulkAppliesToEveryLine(t *testing.T) {
	a := product(29900, 24900, 15)
	b := product(49900, 39900, 15)
	lines := []Line{
		{ProductID: a.ID, Color: "Black", Size: enums.SizeM, Quantity: 10},
		{ProductID: b.ID, Color: "White", Size: enums.SizeL, Quantity: 5},
	}
	quote, err := Compute(testRules(), lines, map[uuid.UUID]models.Product{a.ID: a, b.ID: b})
	require.NoError(t, err)

	assert.True(t, quote.IsBulk)
	assert.Equal(t, 15, quote.TotalQuantity)
	assert.Equal(t, int64(24900), quote.Lines[0].UnitPrice)
	assert.Equal(t, int64(39900), quote.Lines[1].UnitPrice)
	assert.Equal(t, int64(0), quote.Shipping)
}

func TestComputeBulkBoundary(t *testing.T) {
	p := product(100, 90, 15)
	catalog := map[uuid.UUID]models.Product{p.ID: p}
	for qty := 1; qty <= 30; qty++ {
		quote, err := Compute(testRules(), []Line{{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: qty}}, catalog)
		require.NoError(t, err)
		assert.Equal(t, qty >= 15, quote.IsBulk, "qty %d", qty)
		for _, l := range quote.Lines {
			if quote.IsBulk {
				assert.Equal(t, p.BulkPrice, l.UnitPrice)
			} else {
				assert.Equal(t, p.BasePrice, l.UnitPrice)
			}
		}
		assert.Equal(t, quote.Subtotal+quote.Tax+quote.Shipping, quote.Total)
	}
}

func TestComputeUsesLargestProductThreshold(t *testing.T) {
	a := product(100, 90, 10)
	b := product(100, 90, 25)
	lines := []Line{
		{ProductID: a.ID, Color: "Black", Size: enums.SizeM, Quantity: 10},
		{ProductID: b.ID, Color: "Black", Size: enums.SizeM, Quantity: 10},
	}
	quote, err := Compute(testRules(), lines, map[uuid.UUID]models.Product{a.ID: a, b.ID: b})
	require.NoError(t, err)
	assert.Equal(t, 25, quote.BulkThreshold)
	assert.False(t, quote.IsBulk)
}

func TestComputeShippingThresholdIsStrict(t *testing.T) {
	p := product(50000, 40000, 15)
	quote, err := Compute(testRules(), []Line{{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 1}},
		map[uuid.UUID]models.Product{p.ID: p})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), quote.Shipping)

	assert.Equal(t, int64(0), Shipping(50001, 50000, 5000))
}

func TestTaxRoundsHalfUp(t *testing.T) {
	rate := decimal.RequireFromString("0.18")
	assert.Equal(t, int64(9), Tax(50, rate))
	assert.Equal(t, int64(1), Tax(3, rate))
	assert.Equal(t, int64(0), Tax(2, rate))
	assert.Equal(t, int64(0), Tax(0, rate))
}

func TestComputeRejectsMissingOrInactiveProduct(t *testing.T) {
	p := product(100, 90, 15)
	inactive := product(100, 90, 15)
	inactive.IsActive = false
	catalog := map[uuid.UUID]models.Product{p.ID: p, inactive.ID: inactive}

	_, err := Compute(testRules(), []Line{
		{ProductID: p.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 1},
	}, catalog)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = Compute(testRules(), []Line{{ProductID: inactive.ID, Quantity: 1}}, catalog)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestComputeRejectsNonPositiveQuantity(t *testing.T) {
	p := product(100, 90, 15)
	_, err := Compute(testRules(), []Line{{ProductID: p.ID, Quantity: 0}}, map[uuid.UUID]models.Product{p.ID: p})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestEnginePriceDedupesLookupAndWrapsErrors(t *testing.T) {
	p := product(100, 90, 15)
	lookup := &stubLookup{products: map[uuid.UUID]models.Product{p.ID: p}}
	engine, err := NewEngine(testRules(), lookup)
	require.NoError(t, err)

	quote, err := engine.Price(context.Background(), []Line{
		{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 2},
		{ProductID: p.ID, Color: "White", Size: enums.SizeM, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, quote.TotalQuantity)
	assert.Equal(t, 1, lookup.calls)

	lookup.err = errors.New("db down")
	_, err = engine.Price(context.Background(), []Line{{ProductID: p.ID, Quantity: 1}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}
