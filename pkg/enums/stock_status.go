package enums

// StockStatus buckets a variant's on-hand quantity for storefront display.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

const lowStockCeiling = 10

// StockStatusFor classifies a quantity: above 10 is in stock, 1-10 is low, otherwise out.
func StockStatusFor(quantity int) StockStatus {
	switch {
	case quantity > lowStockCeiling:
		return StockStatusInStock
	case quantity > 0:
		return StockStatusLowStock
	default:
		return StockStatusOutOfStock
	}
}
