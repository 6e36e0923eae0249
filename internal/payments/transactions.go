package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	"github.com/angelmondragon/bulkwear-backend/pkg/pagination"
)

// TransactionRepository persists payment transactions.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository binds the repository to the provided DB.
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	if tx == nil {
		return r
	}
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *TransactionRepository) FindBySession(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.WithContext(ctx).First(&txn, "session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// MarkStatus mirrors the order's payment status onto the session's transaction.
func (r *TransactionRepository) MarkStatus(ctx context.Context, sessionID string, status enums.PaymentStatus, paymentID string) (bool, error) {
	updates := map[string]any{"status": status}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	res := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("session_id = ?", sessionID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByID loads one transaction.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// OrderSessionToken returns the anonymous owner token of the transaction's order.
func (r *TransactionRepository) OrderSessionToken(ctx context.Context, orderID uuid.UUID) (*string, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Select("id", "session_token").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return order.SessionToken, nil
}

// ListForOwner returns the owner's transactions newest first. Anonymous owners
// are matched through the session token stored on the order.
func (r *TransactionRepository) ListForOwner(ctx context.Context, owner identity.Identity, cursor *pagination.Cursor, limit int) ([]models.PaymentTransaction, string, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentTransaction{})
	if userID, ok := owner.UserID(); ok {
		query = query.Where("payment_transactions.user_id = ?", userID)
	} else if token, ok := owner.SessionToken(); ok {
		query = query.
			Joins("JOIN orders ON orders.id = payment_transactions.order_id").
			Where("orders.session_token = ?", token)
	} else {
		query = query.Where("1 = 0")
	}
	return r.page(query, cursor, limit)
}

// ListAll returns every transaction newest first.
func (r *TransactionRepository) ListAll(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.PaymentTransaction, string, error) {
	return r.page(r.db.WithContext(ctx).Model(&models.PaymentTransaction{}), cursor, limit)
}

func (r *TransactionRepository) page(query *gorm.DB, cursor *pagination.Cursor, limit int) ([]models.PaymentTransaction, string, error) {
	if cursor != nil {
		query = query.Where(
			"(payment_transactions.created_at < ?) OR (payment_transactions.created_at = ? AND payment_transactions.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.PaymentTransaction
	if err := query.
		Select("payment_transactions.*").
		Order("payment_transactions.created_at DESC").
		Order("payment_transactions.id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	limit = pagination.NormalizeLimit(limit)
	next := ""
	if len(rows) > limit {
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	return rows, next, nil
}

// TransactionDTO is the wire shape of a payment transaction.
type TransactionDTO struct {
	ID        uuid.UUID             `json:"id"`
	OrderID   uuid.UUID             `json:"order_id"`
	Amount    int64                 `json:"amount"`
	Currency  enums.Currency        `json:"currency"`
	Provider  enums.PaymentProvider `json:"provider"`
	SessionID string                `json:"session_id"`
	PaymentID *string               `json:"payment_id,omitempty"`
	Status    enums.PaymentStatus   `json:"status"`
	CreatedAt string                `json:"created_at"`
}

// TransactionList is a page of transactions.
type TransactionList struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor,omitempty"`
}

func newTransactionDTO(t models.PaymentTransaction) TransactionDTO {
	return TransactionDTO{
		ID:        t.ID,
		OrderID:   t.OrderID,
		Amount:    t.Amount,
		Currency:  t.Currency,
		Provider:  t.Provider,
		SessionID: t.SessionID,
		PaymentID: t.PaymentID,
		Status:    t.Status,
		CreatedAt: t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
