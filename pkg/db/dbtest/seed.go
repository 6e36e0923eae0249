package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	"github.com/angelmondragon/bulkwear-backend/pkg/types"
)

// ProductSeed describes a product with a single variant.
type ProductSeed struct {
	Name          string
	BasePrice     int64
	BulkPrice     int64
	BulkThreshold int
	Inactive      bool
	Color         string
	Size          enums.Size
	Stock         int
}

// SeedProduct inserts a product and its variant, returning both.
func SeedProduct(t testing.TB, db *gorm.DB, seed ProductSeed) (*models.Product, *models.ProductVariant) {
	t.Helper()

	if seed.Name == "" {
		seed.Name = "Classic Tee"
	}
	if seed.BasePrice == 0 {
		seed.BasePrice = 29900
	}
	if seed.BulkPrice == 0 {
		seed.BulkPrice = 24900
	}
	if seed.BulkThreshold == 0 {
		seed.BulkThreshold = 15
	}
	if seed.Color == "" {
		seed.Color = "Black"
	}
	if seed.Size == "" {
		seed.Size = enums.SizeM
	}

	product := &models.Product{
		Name:          seed.Name,
		BasePrice:     seed.BasePrice,
		BulkPrice:     seed.BulkPrice,
		BulkThreshold: seed.BulkThreshold,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if seed.Inactive {
		// is_active has a column default, so false must be written explicitly.
		if err := db.Model(product).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate product: %v", err)
		}
		product.IsActive = false
	}

	variant := SeedVariant(t, db, product.ID, seed.Color, seed.Size, seed.Stock)
	return product, variant
}

// SeedVariant inserts one more variant for an existing product.
func SeedVariant(t testing.TB, db *gorm.DB, productID uuid.UUID, color string, size enums.Size, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:     productID,
		Color:         color,
		Size:          size,
		SKU:           fmt.Sprintf("BW-%s-%s-%s", productID.String()[:8], color, size),
		StockQuantity: stock,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

// OrderSeed describes a pending order owned by a user or a session token.
type OrderSeed struct {
	UserID        *uuid.UUID
	SessionToken  *string
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
	SessionID     string
	Lines         []models.OrderLine
}

// SeedOrder inserts an order whose totals are derived from its lines.
func SeedOrder(t testing.TB, db *gorm.DB, seed OrderSeed) *models.Order {
	t.Helper()
	if seed.Status == "" {
		seed.Status = enums.OrderStatusPending
	}
	if seed.PaymentStatus == "" {
		seed.PaymentStatus = enums.PaymentStatusPending
	}

	order := &models.Order{
		UserID:       seed.UserID,
		SessionToken: seed.SessionToken,
		Email:        "buyer@example.com",
		Phone:        "9876543210",
		ShippingAddress: types.Address{
			FullName: "Asha Rao", Phone: "9876543210", AddressLine1: "12 MG Road",
			City: "Bengaluru", State: "KA", PostalCode: "560001", Country: "India",
		},
		Currency:      enums.CurrencyINR,
		Status:        seed.Status,
		PaymentStatus: seed.PaymentStatus,
		Receipt:       "rcpt_seed",
		Lines:         seed.Lines,
	}
	for i := range order.Lines {
		line := &order.Lines[i]
		line.LineTotal = line.UnitPrice * int64(line.Quantity)
		line.Position = i
		order.TotalQuantity += line.Quantity
		order.Subtotal += line.LineTotal
	}
	order.TotalAmount = order.Subtotal
	if seed.SessionID != "" {
		provider := enums.PaymentProviderStripe
		sessionID := seed.SessionID
		order.PaymentProvider = &provider
		order.GatewaySessionID = &sessionID
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}
