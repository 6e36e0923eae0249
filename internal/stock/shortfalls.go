package stock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

const (
	ShortfallReasonInsufficient   = "insufficient_stock"
	ShortfallReasonVariantMissing = "variant_missing"
)

// Shortfall is a line of a paid order that could not be taken from stock.
type Shortfall struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   uuid.UUID  `json:"order_id"`
	ProductID uuid.UUID  `json:"product_id"`
	Color     string     `json:"color"`
	Size      enums.Size `json:"size"`
	Requested int        `json:"requested"`
	Available int        `json:"available"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"created_at"`
}

// RecordShortfall persists a shortfall row for the order.
func (l *Ledger) RecordShortfall(ctx context.Context, orderID uuid.UUID, item ShortageItem, reason string) error {
	row := models.StockShortfall{
		OrderID:   orderID,
		ProductID: item.ProductID,
		Color:     item.Color,
		Size:      item.Size,
		Requested: item.Requested,
		Available: item.Available,
		Reason:    reason,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock shortfall")
	}
	return nil
}

// ListShortfalls returns recorded shortfalls, newest first.
func (l *Ledger) ListShortfalls(ctx context.Context, limit int) ([]Shortfall, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.StockShortfall
	if err := l.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock shortfalls")
	}
	out := make([]Shortfall, 0, len(rows))
	for _, r := range rows {
		out = append(out, Shortfall{
			ID:        r.ID,
			OrderID:   r.OrderID,
			ProductID: r.ProductID,
			Color:     r.Color,
			Size:      r.Size,
			Requested: r.Requested,
			Available: r.Available,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
