package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bulkwear-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

func TestGetProductBuildsPricingRuleAndVariants(t *testing.T) {
	conn := dbtest.Open(t)
	product, _ := dbtest.SeedProduct(t, conn, dbtest.ProductSeed{
		Name: "Oversized Tee", BasePrice: 49900, BulkPrice: 39900, BulkThreshold: 20,
		Color: "White", Size: enums.SizeL, Stock: 4,
	})
	dbtest.SeedVariant(t, conn, product.ID, "Black", enums.SizeS, 40)
	dbtest.SeedVariant(t, conn, product.ID, "White", enums.SizeXS, 0)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	dto, err := svc.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)

	assert.Equal(t, PricingRule{BulkThreshold: 20, BulkPrice: 39900, RegularPrice: 49900}, dto.PricingRule)
	assert.Equal(t, []string{"Black", "White"}, dto.Colors)
	assert.Equal(t, []enums.Size{enums.SizeXS, enums.SizeS, enums.SizeL}, dto.Sizes)
	assert.Equal(t, 44, dto.TotalStock)

	statuses := map[enums.Size]enums.StockStatus{}
	for _, v := range dto.Variants {
		statuses[v.Size] = v.StockStatus
	}
	assert.Equal(t, enums.StockStatusLowStock, statuses[enums.SizeL])
	assert.Equal(t, enums.StockStatusInStock, statuses[enums.SizeS])
	assert.Equal(t, enums.StockStatusOutOfStock, statuses[enums.SizeXS])
}

func TestGetProductHidesInactiveAndMissing(t *testing.T) {
	conn := dbtest.Open(t)
	inactive, _ := dbtest.SeedProduct(t, conn, dbtest.ProductSeed{Inactive: true})

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.GetProduct(context.Background(), inactive.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.GetProduct(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListProductsFilters(t *testing.T) {
	conn := dbtest.Open(t)
	category := &models.Category{Name: "Polos", Slug: "polos"}
	require.NoError(t, conn.Create(category).Error)

	polo, _ := dbtest.SeedProduct(t, conn, dbtest.ProductSeed{Name: "Pique Polo", Stock: 5})
	require.NoError(t, conn.Model(polo).Update("category_id", category.ID).Error)
	dbtest.SeedProduct(t, conn, dbtest.ProductSeed{Name: "Basic Tee", Stock: 5})
	dbtest.SeedProduct(t, conn, dbtest.ProductSeed{Name: "Retired Tee", Inactive: true})

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	all, err := svc.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCategory, err := svc.ListProducts(ctx, ListProductsInput{CategoryID: &category.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Pique Polo", byCategory[0].Name)

	withInactive, err := svc.ListProducts(ctx, ListProductsInput{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withInactive, 3)

	search, err := svc.ListProducts(ctx, ListProductsInput{Search: "tee"})
	require.NoError(t, err)
	assert.Len(t, search, 1)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "polos", categories[0].Slug)
}

func TestProductsByIDSkipsMissing(t *testing.T) {
	conn := dbtest.Open(t)
	product, _ := dbtest.SeedProduct(t, conn, dbtest.ProductSeed{})

	found, err := NewRepository(conn).ProductsByID(context.Background(), []uuid.UUID{product.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, product.ID)
}
