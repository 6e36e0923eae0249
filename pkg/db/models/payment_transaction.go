package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

// PaymentTransaction links an order to one gateway checkout session and mirrors its payment status.
type PaymentTransaction struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index:ix_payment_transactions_order_id"`
	UserID    *uuid.UUID            `gorm:"column:user_id;type:uuid;index:ix_payment_transactions_user_id"`
	Amount    int64                 `gorm:"column:amount;not null"`
	Currency  enums.Currency        `gorm:"column:currency;not null"`
	Provider  enums.PaymentProvider `gorm:"column:provider;not null"`
	SessionID string                `gorm:"column:session_id;not null;uniqueIndex:ux_payment_transactions_session_id"`
	PaymentID *string               `gorm:"column:payment_id"`
	Status    enums.PaymentStatus   `gorm:"column:status;not null;default:'pending'"`
	Metadata  map[string]string     `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *PaymentTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
