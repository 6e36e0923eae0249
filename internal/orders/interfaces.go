package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	"github.com/angelmondragon/bulkwear-backend/pkg/pagination"
)

// Repository captures the order persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByGatewaySession(ctx context.Context, sessionID string) (*models.Order, error)
	ListForOwner(ctx context.Context, owner identity.Identity, params pagination.Params) ([]models.Order, string, error)
	AttachSession(ctx context.Context, id uuid.UUID, provider enums.PaymentProvider, sessionID string) error
	UpdateFulfillment(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error)
}
