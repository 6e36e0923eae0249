package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

// ProductVariant is one (color, size) stock-keeping unit of a product.
type ProductVariant struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_variants_key,priority:1"`
	Color         string     `gorm:"column:color;not null;uniqueIndex:ux_product_variants_key,priority:2"`
	Size          enums.Size `gorm:"column:size;not null;uniqueIndex:ux_product_variants_key,priority:3"`
	SKU           string     `gorm:"column:sku;not null;uniqueIndex:ux_product_variants_sku"`
	StockQuantity int        `gorm:"column:stock_quantity;not null;default:0;check:chk_product_variants_stock_nonneg,stock_quantity >= 0"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
