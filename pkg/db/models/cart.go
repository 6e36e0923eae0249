package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

// Cart belongs to exactly one owner: an authenticated user or an anonymous session token.
// Version guards concurrent line mutations.
type Cart struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID       *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex:ux_carts_user_id"`
	SessionToken *string    `gorm:"column:session_token;uniqueIndex:ux_carts_session_token"`
	Version      int64      `gorm:"column:version;not null;default:0"`
	Lines        []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartLine is one (product, color, size) entry. Prices are resolved live, never stored.
type CartLine struct {
	CartID    uuid.UUID  `gorm:"column:cart_id;type:uuid;primaryKey"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;primaryKey"`
	Color     string     `gorm:"column:color;primaryKey"`
	Size      enums.Size `gorm:"column:size;primaryKey"`
	Quantity  int        `gorm:"column:quantity;not null;check:chk_cart_lines_quantity_pos,quantity > 0"`
	Position  int        `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
