package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

// StockShortfall records an order line that could not be decremented after payment was captured.
type StockShortfall struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index:ix_stock_shortfalls_order_id"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	Color     string     `gorm:"column:color;not null"`
	Size      enums.Size `gorm:"column:size;not null"`
	Requested int        `gorm:"column:requested;not null"`
	Available int        `gorm:"column:available;not null"`
	Reason    string     `gorm:"column:reason;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (s *StockShortfall) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// AllModels lists every persisted model, in dependency order.
func AllModels() []any {
	return []any{
		&Category{},
		&Product{},
		&ProductVariant{},
		&Cart{},
		&CartLine{},
		&Order{},
		&OrderLine{},
		&PaymentTransaction{},
		&StockShortfall{},
	}
}
