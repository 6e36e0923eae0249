package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	"github.com/angelmondragon/bulkwear-backend/pkg/types"
)

// Order freezes a priced cart at checkout. Totals never change after creation;
// only reconciliation and admin fulfillment move Status and PaymentStatus.
type Order struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID           *uuid.UUID             `gorm:"column:user_id;type:uuid;index:ix_orders_user_id"`
	SessionToken     *string                `gorm:"column:session_token;index:ix_orders_session_token"`
	Email            string                 `gorm:"column:email;not null"`
	Phone            string                 `gorm:"column:phone;not null"`
	ShippingAddress  types.Address          `gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress   *types.Address         `gorm:"column:billing_address;type:jsonb"`
	Notes            *string                `gorm:"column:notes"`
	IsBulk           bool                   `gorm:"column:is_bulk;not null;default:false"`
	TotalQuantity    int                    `gorm:"column:total_quantity;not null"`
	Subtotal         int64                  `gorm:"column:subtotal;not null"`
	TaxAmount        int64                  `gorm:"column:tax_amount;not null"`
	ShippingAmount   int64                  `gorm:"column:shipping_amount;not null"`
	TotalAmount      int64                  `gorm:"column:total_amount;not null"`
	Currency         enums.Currency         `gorm:"column:currency;not null;default:'INR'"`
	Status           enums.OrderStatus      `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus    `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentProvider  *enums.PaymentProvider `gorm:"column:payment_provider"`
	GatewaySessionID *string                `gorm:"column:gateway_session_id;uniqueIndex:ux_orders_gateway_session_id"`
	PaymentID        *string                `gorm:"column:payment_id"`
	Receipt          string                 `gorm:"column:receipt;not null"`
	StockShortfall   bool                   `gorm:"column:stock_shortfall;not null;default:false"`
	PaidAt           *time.Time             `gorm:"column:paid_at"`
	Lines            []OrderLine            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLine snapshots the product name and unit price at order creation.
type OrderLine struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index:ix_order_lines_order_id"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	ProductName string     `gorm:"column:product_name;not null"`
	Color       string     `gorm:"column:color;not null"`
	Size        enums.Size `gorm:"column:size;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	UnitPrice   int64      `gorm:"column:unit_price;not null"`
	LineTotal   int64      `gorm:"column:line_total;not null"`
	Position    int        `gorm:"column:position;not null;default:0"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
