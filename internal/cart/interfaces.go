package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error)
	Create(ctx context.Context, owner identity.Identity) (*models.Cart, error)
	BumpVersion(ctx context.Context, cartID uuid.UUID, version int64) (bool, error)
	ReplaceLines(ctx context.Context, cartID uuid.UUID, lines []models.CartLine) error
	ClearOwner(ctx context.Context, owner identity.Identity) error
}

// StockReader reports variant availability.
type StockReader interface {
	Available(ctx context.Context, key stock.Key) (int, error)
}

// ProductReader resolves products by id.
type ProductReader interface {
	ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
