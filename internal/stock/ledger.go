// Package stock is the single authority over variant stock counts.
package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

// DefaultLowStockThreshold is used when callers pass a non-positive threshold.
const DefaultLowStockThreshold = 10

// Key identifies one variant.
type Key struct {
	ProductID uuid.UUID  `json:"product_id"`
	Color     string     `json:"color"`
	Size      enums.Size `json:"size"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ProductID, k.Color, k.Size)
}

// Normalize trims the color and upper-cases the size.
func (k Key) Normalize() Key {
	k.Color = strings.TrimSpace(k.Color)
	k.Size = enums.Size(strings.ToUpper(strings.TrimSpace(string(k.Size))))
	return k
}

// VariantStock is a variant's current stock reading.
type VariantStock struct {
	VariantID     uuid.UUID         `json:"variant_id"`
	ProductID     uuid.UUID         `json:"product_id"`
	ProductName   string            `json:"product_name,omitempty"`
	Color         string            `json:"color"`
	Size          enums.Size        `json:"size"`
	SKU           string            `json:"sku"`
	StockQuantity int               `json:"stock_quantity"`
	Status        enums.StockStatus `json:"status"`
}

// ShortageItem describes one line that cannot be satisfied.
type ShortageItem struct {
	ProductID uuid.UUID  `json:"product_id"`
	Color     string     `json:"color"`
	Size      enums.Size `json:"size"`
	Requested int        `json:"requested"`
	Available int        `json:"available"`
}

// Ledger reads and mutates product_variants.stock_quantity.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the provided transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// GetStock lists every variant of a product.
func (l *Ledger) GetStock(ctx context.Context, productID uuid.UUID) ([]VariantStock, error) {
	var product models.Product
	if err := l.db.WithContext(ctx).Select("id", "name").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"kind": "product", "product_id": productID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	var variants []models.ProductVariant
	if err := l.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("color ASC, size ASC").
		Find(&variants).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}

	out := make([]VariantStock, 0, len(variants))
	for _, v := range variants {
		out = append(out, toVariantStock(v, product.Name))
	}
	return out, nil
}

// Available returns the on-hand quantity of a variant.
func (l *Ledger) Available(ctx context.Context, key Key) (int, error) {
	variant, err := l.findVariant(ctx, key)
	if err != nil {
		return 0, err
	}
	return variant.StockQuantity, nil
}

// CheckAvailable reports whether qty units can be taken from the variant.
func (l *Ledger) CheckAvailable(ctx context.Context, key Key, qty int) (bool, error) {
	available, err := l.Available(ctx, key)
	if err != nil {
		return false, err
	}
	return qty <= available, nil
}

// Decrement atomically removes qty units and returns the new quantity. The
// conditional update never lets stock go negative; a short variant yields
// INSUFFICIENT_STOCK with the current availability.
func (l *Ledger) Decrement(ctx context.Context, key Key, qty int) (int, error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}
	key = key.Normalize()

	res := l.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("product_id = ? AND color = ? AND size = ? AND stock_quantity >= ?", key.ProductID, key.Color, key.Size, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}

	variant, err := l.findVariant(ctx, key)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		return variant.StockQuantity, InsufficientStock(ShortageItem{
			ProductID: key.ProductID,
			Color:     key.Color,
			Size:      key.Size,
			Requested: qty,
			Available: variant.StockQuantity,
		})
	}
	return variant.StockQuantity, nil
}

// SetQuantity overwrites a variant's stock with an absolute value.
func (l *Ledger) SetQuantity(ctx context.Context, key Key, qty int) (*VariantStock, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be non-negative")
	}
	key = key.Normalize()

	res := l.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("product_id = ? AND color = ? AND size = ?", key.ProductID, key.Color, key.Size).
		Update("stock_quantity", qty)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "set stock")
	}
	if res.RowsAffected == 0 {
		return nil, VariantNotFound(key)
	}

	variant, err := l.findVariant(ctx, key)
	if err != nil {
		return nil, err
	}
	stock := toVariantStock(*variant, "")
	return &stock, nil
}

// LowStock lists variants of active products at or below threshold, emptiest first.
func (l *Ledger) LowStock(ctx context.Context, threshold int) ([]VariantStock, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return l.scan(ctx, "pv.stock_quantity <= ?", threshold)
}

// Summary lists every variant of every active product with its stock status.
func (l *Ledger) Summary(ctx context.Context) ([]VariantStock, error) {
	return l.scan(ctx, "")
}

type variantRow struct {
	models.ProductVariant
	ProductName string
}

func (l *Ledger) scan(ctx context.Context, cond string, args ...any) ([]VariantStock, error) {
	query := l.db.WithContext(ctx).
		Table("product_variants AS pv").
		Select("pv.*, p.name AS product_name").
		Joins("JOIN products p ON p.id = pv.product_id").
		Where("p.is_active = ?", true)
	if cond != "" {
		query = query.Where(cond, args...)
	}

	var rows []variantRow
	if err := query.Order("pv.stock_quantity ASC, p.name ASC, pv.color ASC, pv.size ASC").Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan stock")
	}
	out := make([]VariantStock, 0, len(rows))
	for _, row := range rows {
		out = append(out, toVariantStock(row.ProductVariant, row.ProductName))
	}
	return out, nil
}

func (l *Ledger) findVariant(ctx context.Context, key Key) (*models.ProductVariant, error) {
	key = key.Normalize()
	var variant models.ProductVariant
	err := l.db.WithContext(ctx).
		Where("product_id = ? AND color = ? AND size = ?", key.ProductID, key.Color, key.Size).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, VariantNotFound(key)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return &variant, nil
}

func toVariantStock(v models.ProductVariant, productName string) VariantStock {
	return VariantStock{
		VariantID:     v.ID,
		ProductID:     v.ProductID,
		ProductName:   productName,
		Color:         v.Color,
		Size:          v.Size,
		SKU:           v.SKU,
		StockQuantity: v.StockQuantity,
		Status:        enums.StockStatusFor(v.StockQuantity),
	}
}

// VariantNotFound is the typed error for an unknown (product, color, size).
func VariantNotFound(key Key) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
		WithDetails(map[string]any{
			"kind":       "variant",
			"product_id": key.ProductID,
			"color":      key.Color,
			"size":       key.Size,
		})
}

// InsufficientStock is the typed error listing every short line.
func InsufficientStock(items ...ShortageItem) error {
	msg := "insufficient stock"
	if len(items) == 1 {
		msg = fmt.Sprintf("only %d available", items[0].Available)
	}
	details := map[string]any{"items": items}
	if len(items) == 1 {
		details["available"] = items[0].Available
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, msg).WithDetails(details)
}

// ShortageFrom extracts the shortage items from an INSUFFICIENT_STOCK error.
func ShortageFrom(err error) []ShortageItem {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		return nil
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return nil
	}
	items, _ := details["items"].([]ShortageItem)
	return items
}
