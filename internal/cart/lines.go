package cart

import (
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
)

// The transforms below are pure: they never mutate the input slice.

func lineKey(l models.CartLine) stock.Key {
	return stock.Key{ProductID: l.ProductID, Color: l.Color, Size: l.Size}
}

func indexOf(lines []models.CartLine, key stock.Key) int {
	for i, l := range lines {
		if lineKey(l) == key {
			return i
		}
	}
	return -1
}

func cloneLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}

// addLine adds qty to the line for key, appending it when absent. The resulting
// quantity must not exceed available.
func addLine(lines []models.CartLine, key stock.Key, qty, available int) ([]models.CartLine, error) {
	out := cloneLines(lines)
	idx := indexOf(out, key)

	next := qty
	if idx >= 0 {
		next += out[idx].Quantity
	}
	if next > available {
		return nil, stock.InsufficientStock(stock.ShortageItem{
			ProductID: key.ProductID,
			Color:     key.Color,
			Size:      key.Size,
			Requested: next,
			Available: available,
		})
	}

	if idx >= 0 {
		out[idx].Quantity = next
		return out, nil
	}
	return append(out, models.CartLine{
		ProductID: key.ProductID,
		Color:     key.Color,
		Size:      key.Size,
		Quantity:  next,
	}), nil
}

// updateLine sets the absolute quantity for key; qty <= 0 removes the line.
func updateLine(lines []models.CartLine, key stock.Key, qty, available int) ([]models.CartLine, error) {
	if qty <= 0 {
		return removeLine(lines, key), nil
	}
	if qty > available {
		return nil, stock.InsufficientStock(stock.ShortageItem{
			ProductID: key.ProductID,
			Color:     key.Color,
			Size:      key.Size,
			Requested: qty,
			Available: available,
		})
	}

	out := cloneLines(lines)
	if idx := indexOf(out, key); idx >= 0 {
		out[idx].Quantity = qty
		return out, nil
	}
	return append(out, models.CartLine{
		ProductID: key.ProductID,
		Color:     key.Color,
		Size:      key.Size,
		Quantity:  qty,
	}), nil
}

// removeLine drops the line for key; absent keys are a no-op.
func removeLine(lines []models.CartLine, key stock.Key) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if lineKey(l) == key {
			continue
		}
		out = append(out, l)
	}
	return out
}
