package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/bulkwear-backend/internal/cart"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

// lineRequest is the body of add and update calls. Update treats zero or a
// negative quantity as removal.
type lineRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	Color     string     `json:"color" validate:"required,max=50"`
	Size      enums.Size `json:"size" validate:"required,max=5"`
	Quantity  int        `json:"quantity" validate:"max=100000"`
}

func (req lineRequest) toInput() cartsvc.LineInput {
	return cartsvc.LineInput{
		ProductID: req.ProductID,
		Color:     req.Color,
		Size:      req.Size,
		Quantity:  max(req.Quantity, 0),
	}
}
