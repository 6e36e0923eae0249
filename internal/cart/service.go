package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/internal/pricing"
	"github.com/angelmondragon/bulkwear-backend/internal/stock"
	"github.com/angelmondragon/bulkwear-backend/pkg/db"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
)

const maxMutationAttempts = 3

var errVersionConflict = errors.New("cart version conflict")

// Service manages the per-identity cart.
type Service interface {
	GetCart(ctx context.Context, owner identity.Identity) (*View, error)
	AddLine(ctx context.Context, owner identity.Identity, input LineInput) (*View, error)
	UpdateLine(ctx context.Context, owner identity.Identity, input LineInput) (*View, error)
	RemoveLine(ctx context.Context, owner identity.Identity, key stock.Key) (*View, error)
	Lines(ctx context.Context, owner identity.Identity) ([]pricing.Line, error)
}

// LineInput identifies a variant and a quantity.
type LineInput struct {
	ProductID uuid.UUID
	Color     string
	Size      enums.Size
	Quantity  int
}

func (in LineInput) key() stock.Key {
	return stock.Key{ProductID: in.ProductID, Color: in.Color, Size: in.Size}.Normalize()
}

// ServiceParams groups the cart service collaborators. Stock and Products are
// called with the active transaction, or nil for the base connection.
type ServiceParams struct {
	Repo     CartRepository
	Tx       txRunner
	Stock    func(tx *gorm.DB) StockReader
	Products func(tx *gorm.DB) ProductReader
	Pricing  *pricing.Engine
	Logger   *logger.Logger
}

type service struct {
	repo     CartRepository
	tx       txRunner
	stock    func(tx *gorm.DB) StockReader
	products func(tx *gorm.DB) ProductReader
	pricing  *pricing.Engine
	logg     *logger.Logger
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		stock:    params.Stock,
		products: params.Products,
		pricing:  params.Pricing,
		logg:     params.Logger,
	}, nil
}

func (s *service) GetCart(ctx context.Context, owner identity.Identity) (*View, error) {
	if !owner.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity missing")
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyView(s.pricing.Rules()), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.buildView(ctx, cart)
}

func (s *service) AddLine(ctx context.Context, owner identity.Identity, input LineInput) (*View, error) {
	if err := validateInput(input, false); err != nil {
		return nil, err
	}
	key := input.key()
	err := s.mutate(ctx, owner, true, func(ctx context.Context, tx *gorm.DB, lines []models.CartLine) ([]models.CartLine, error) {
		available, err := s.checkVariant(ctx, tx, key)
		if err != nil {
			return nil, err
		}
		return addLine(lines, key, input.Quantity, available)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

func (s *service) UpdateLine(ctx context.Context, owner identity.Identity, input LineInput) (*View, error) {
	if err := validateInput(input, true); err != nil {
		return nil, err
	}
	key := input.key()
	err := s.mutate(ctx, owner, input.Quantity > 0, func(ctx context.Context, tx *gorm.DB, lines []models.CartLine) ([]models.CartLine, error) {
		if input.Quantity <= 0 {
			return removeLine(lines, key), nil
		}
		available, err := s.checkVariant(ctx, tx, key)
		if err != nil {
			return nil, err
		}
		return updateLine(lines, key, input.Quantity, available)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

func (s *service) RemoveLine(ctx context.Context, owner identity.Identity, key stock.Key) (*View, error) {
	if key.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	key = key.Normalize()
	err := s.mutate(ctx, owner, false, func(_ context.Context, _ *gorm.DB, lines []models.CartLine) ([]models.CartLine, error) {
		return removeLine(lines, key), nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// Lines returns the raw cart lines for checkout.
func (s *service) Lines(ctx context.Context, owner identity.Identity) ([]pricing.Line, error) {
	if !owner.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity missing")
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	out := make([]pricing.Line, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		out = append(out, pricing.Line{ProductID: l.ProductID, Color: l.Color, Size: l.Size, Quantity: l.Quantity})
	}
	return out, nil
}

type transform func(ctx context.Context, tx *gorm.DB, lines []models.CartLine) ([]models.CartLine, error)

// mutate loads the cart, applies fn and commits only if the cart version is
// unchanged. Version conflicts are retried before surfacing CONFLICT.
func (s *service) mutate(ctx context.Context, owner identity.Identity, create bool, fn transform) error {
	if !owner.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart identity missing")
	}

	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			cart, err := repo.FindByOwner(ctx, owner)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if !create {
					return nil
				}
				cart, err = repo.Create(ctx, owner)
				if db.IsUniqueViolation(err, "") {
					return errVersionConflict
				}
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
			}

			next, err := fn(ctx, tx, cart.Lines)
			if err != nil {
				return err
			}

			ok, err := repo.BumpVersion(ctx, cart.ID, cart.Version)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump cart version")
			}
			if !ok {
				return errVersionConflict
			}
			if err := repo.ReplaceLines(ctx, cart.ID, next); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart lines")
			}
			return nil
		})
		if errors.Is(err, errVersionConflict) {
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("cart version conflict (attempt %d/%d) owner=%s", attempt, maxMutationAttempts, owner))
			}
			continue
		}
		return err
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently, please retry")
}

// checkVariant requires an active product and an existing variant, returning its stock.
func (s *service) checkVariant(ctx context.Context, tx *gorm.DB, key stock.Key) (int, error) {
	products, err := s.products(tx).ProductsByID(ctx, []uuid.UUID{key.ProductID})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	product, ok := products[key.ProductID]
	if !ok || !product.IsActive {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"kind": "product", "product_id": key.ProductID})
	}
	return s.stock(tx).Available(ctx, key)
}

func validateInput(input LineInput, allowNonPositive bool) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if strings.TrimSpace(input.Color) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "color is required")
	}
	if _, err := enums.ParseSize(string(input.Size)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size")
	}
	if !allowNonPositive && input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
