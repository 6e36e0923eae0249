package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	"github.com/angelmondragon/bulkwear-backend/pkg/types"
)

// OrderDTO is the client-facing order payload.
type OrderDTO struct {
	ID               uuid.UUID              `json:"id"`
	Status           enums.OrderStatus      `json:"status"`
	PaymentStatus    enums.PaymentStatus    `json:"payment_status"`
	PaymentProvider  *enums.PaymentProvider `json:"payment_provider,omitempty"`
	GatewaySessionID *string                `json:"gateway_session_id,omitempty"`
	PaymentID        *string                `json:"payment_id,omitempty"`
	Receipt          string                 `json:"receipt"`
	Email            string                 `json:"email"`
	Phone            string                 `json:"phone"`
	ShippingAddress  types.Address          `json:"shipping_address"`
	BillingAddress   *types.Address         `json:"billing_address,omitempty"`
	Notes            *string                `json:"notes,omitempty"`
	IsBulk           bool                   `json:"is_bulk"`
	TotalQuantity    int                    `json:"total_quantity"`
	Subtotal         int64                  `json:"subtotal"`
	TaxAmount        int64                  `json:"tax_amount"`
	ShippingAmount   int64                  `json:"shipping_amount"`
	TotalAmount      int64                  `json:"total_amount"`
	Currency         enums.Currency         `json:"currency"`
	StockShortfall   bool                   `json:"stock_shortfall"`
	Lines            []LineDTO              `json:"lines"`
	PaidAt           *time.Time             `json:"paid_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// LineDTO is one frozen order line.
type LineDTO struct {
	ProductID   uuid.UUID  `json:"product_id"`
	ProductName string     `json:"product_name"`
	Color       string     `json:"color"`
	Size        enums.Size `json:"size"`
	Quantity    int        `json:"quantity"`
	UnitPrice   int64      `json:"unit_price"`
	LineTotal   int64      `json:"line_total"`
}

// OrderList is a page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func NewOrderDTO(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:               o.ID,
		Status:           o.Status,
		PaymentStatus:    o.PaymentStatus,
		PaymentProvider:  o.PaymentProvider,
		GatewaySessionID: o.GatewaySessionID,
		PaymentID:        o.PaymentID,
		Receipt:          o.Receipt,
		Email:            o.Email,
		Phone:            o.Phone,
		ShippingAddress:  o.ShippingAddress,
		BillingAddress:   o.BillingAddress,
		Notes:            o.Notes,
		IsBulk:           o.IsBulk,
		TotalQuantity:    o.TotalQuantity,
		Subtotal:         o.Subtotal,
		TaxAmount:        o.TaxAmount,
		ShippingAmount:   o.ShippingAmount,
		TotalAmount:      o.TotalAmount,
		Currency:         o.Currency,
		StockShortfall:   o.StockShortfall,
		Lines:            make([]LineDTO, 0, len(o.Lines)),
		PaidAt:           o.PaidAt,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, l := range o.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Color:       l.Color,
			Size:        l.Size,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		})
	}
	return dto
}
