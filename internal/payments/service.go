package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/pagination"
)

// Service exposes payment history. Admins see every transaction.
type Service interface {
	ListTransactions(ctx context.Context, caller identity.Identity, params pagination.Params) (*TransactionList, error)
	GetTransaction(ctx context.Context, caller identity.Identity, id uuid.UUID) (*TransactionDTO, error)
}

type service struct {
	repo *TransactionRepository
}

func NewService(repo *TransactionRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListTransactions(ctx context.Context, caller identity.Identity, params pagination.Params) (*TransactionList, error) {
	if !caller.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity missing")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	var (
		rows []models.PaymentTransaction
		next string
	)
	if caller.IsAdmin() {
		rows, next, err = s.repo.ListAll(ctx, cursor, params.Limit)
	} else {
		rows, next, err = s.repo.ListForOwner(ctx, caller, cursor, params.Limit)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	out := &TransactionList{Transactions: make([]TransactionDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		out.Transactions = append(out.Transactions, newTransactionDTO(row))
	}
	return out, nil
}

func (s *service) GetTransaction(ctx context.Context, caller identity.Identity, id uuid.UUID) (*TransactionDTO, error) {
	if !caller.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity missing")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, TransactionNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if !caller.IsAdmin() {
		var token *string
		if _, anonymous := caller.SessionToken(); anonymous {
			token, err = s.repo.OrderSessionToken(ctx, txn.OrderID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction order")
			}
		}
		// Foreign transactions read as missing, like orders.
		if !caller.Owns(txn.UserID, token) {
			return nil, TransactionNotFound(id)
		}
	}
	dto := newTransactionDTO(*txn)
	return &dto, nil
}

// TransactionNotFound is the typed error for a missing or foreign transaction.
func TransactionNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found").
		WithDetails(map[string]any{"kind": "transaction", "transaction_id": id})
}
