package catalog

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

// ProductDTO is the storefront product payload.
type ProductDTO struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CategoryID  *uuid.UUID   `json:"category_id,omitempty"`
	Category    *CategoryDTO `json:"category,omitempty"`
	Material    string       `json:"material"`
	GSM         *string      `json:"gsm,omitempty"`
	PricingRule PricingRule  `json:"pricing_rule"`
	Colors      []string     `json:"colors"`
	Sizes       []enums.Size `json:"sizes"`
	Variants    []VariantDTO `json:"variants"`
	TotalStock  int          `json:"total_stock"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// PricingRule is the wire form of a product's two price tiers.
type PricingRule struct {
	BulkThreshold int   `json:"bulk_threshold"`
	BulkPrice     int64 `json:"bulk_price"`
	RegularPrice  int64 `json:"regular_price"`
}

// VariantDTO is one color/size with its stock level.
type VariantDTO struct {
	ID            uuid.UUID         `json:"id"`
	Color         string            `json:"color"`
	Size          enums.Size        `json:"size"`
	SKU           string            `json:"sku"`
	StockQuantity int               `json:"stock_quantity"`
	StockStatus   enums.StockStatus `json:"stock_status"`
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
}

// NewProductDTO builds the payload from a product with preloaded variants.
func NewProductDTO(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		CategoryID:  product.CategoryID,
		Material:    product.Material,
		GSM:         product.GSM,
		PricingRule: PricingRule{
			BulkThreshold: product.BulkThreshold,
			BulkPrice:     product.BulkPrice,
			RegularPrice:  product.BasePrice,
		},
		Colors:    []string{},
		Sizes:     []enums.Size{},
		Variants:  make([]VariantDTO, 0, len(product.Variants)),
		IsActive:  product.IsActive,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
	if product.Category != nil {
		category := NewCategoryDTO(*product.Category)
		dto.Category = &category
	}

	colors := map[string]struct{}{}
	sizes := map[enums.Size]struct{}{}
	for _, v := range product.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:            v.ID,
			Color:         v.Color,
			Size:          v.Size,
			SKU:           v.SKU,
			StockQuantity: v.StockQuantity,
			StockStatus:   enums.StockStatusFor(v.StockQuantity),
		})
		dto.TotalStock += v.StockQuantity
		if _, ok := colors[v.Color]; !ok {
			colors[v.Color] = struct{}{}
			dto.Colors = append(dto.Colors, v.Color)
		}
		if _, ok := sizes[v.Size]; !ok {
			sizes[v.Size] = struct{}{}
			dto.Sizes = append(dto.Sizes, v.Size)
		}
	}
	sort.Strings(dto.Colors)
	sort.Slice(dto.Sizes, func(i, j int) bool { return dto.Sizes[i].Rank() < dto.Sizes[j].Rank() })
	return dto
}

func NewCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description}
}
