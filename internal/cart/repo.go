package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
)

// Repository persists carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByOwner loads the owner's cart with lines in insertion order.
func (r *Repository) FindByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error) {
	var cart models.Cart
	err := owner.Scope(r.db.WithContext(ctx)).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts an empty cart for the owner.
func (r *Repository) Create(ctx context.Context, owner identity.Identity) (*models.Cart, error) {
	if !owner.IsValid() {
		return nil, fmt.Errorf("cart owner is invalid")
	}
	cart := &models.Cart{
		UserID:       owner.UserIDPtr(),
		SessionToken: owner.SessionTokenPtr(),
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// BumpVersion increments the version only if it still equals the expected value.
func (r *Repository) BumpVersion(ctx context.Context, cartID uuid.UUID, version int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND version = ?", cartID, version).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReplaceLines overwrites the cart lines, keeping slice order as position.
func (r *Repository) ReplaceLines(ctx context.Context, cartID uuid.UUID, lines []models.CartLine) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.CartLine, len(lines))
	for i, l := range lines {
		l.CartID = cartID
		l.Position = i
		rows[i] = l
	}
	return tx.Create(&rows).Error
}

// ClearOwner empties the owner's cart, if any, and bumps its version.
func (r *Repository) ClearOwner(ctx context.Context, owner identity.Identity) error {
	var ids []uuid.UUID
	if err := owner.Scope(r.db.WithContext(ctx).Model(&models.Cart{})).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("cart_id IN ?", ids).Delete(&models.CartLine{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id IN ?", ids).
		Update("version", gorm.Expr("version + 1")).Error
}
