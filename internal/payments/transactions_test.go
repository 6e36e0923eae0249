package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bulkwear-backend/pkg/db/models"
	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/pagination"
)

func seedTransaction(t *testing.T, repo *TransactionRepository, order *models.Order, sessionID string) *models.PaymentTransaction {
	t.Helper()
	txn := &models.PaymentTransaction{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    order.TotalAmount,
		Currency:  enums.CurrencyINR,
		Provider:  enums.PaymentProviderStripe,
		SessionID: sessionID,
		Metadata:  map[string]string{"receipt": order.Receipt},
	}
	require.NoError(t, repo.Create(context.Background(), txn))
	return txn
}

func TestMarkStatus(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewTransactionRepository(conn)
	ctx := context.Background()
	order := dbtest.SeedOrder(t, conn, dbtest.OrderSeed{SessionID: "cs_1"})
	seedTransaction(t, repo, order, "cs_1")

	ok, err := repo.MarkStatus(ctx, "cs_1", enums.PaymentStatusCompleted, "pi_1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindBySession(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, got.Status)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "pi_1", *got.PaymentID)
	assert.Equal(t, "rcpt_seed", got.Metadata["receipt"])

	ok, err = repo.MarkStatus(ctx, "cs_missing", enums.PaymentStatusFailed, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListTransactionsIsOwnerScoped(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewTransactionRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	user := identity.User(userID, enums.UserRoleCustomer)
	anon := identity.Anonymous("sess-42")

	for _, sessionID := range []string{"cs_u1", "cs_u2", "cs_u3"} {
		order := dbtest.SeedOrder(t, conn, dbtest.OrderSeed{UserID: &userID, SessionID: sessionID})
		seedTransaction(t, repo, order, sessionID)
	}
	token := "sess-42"
	anonOrder := dbtest.SeedOrder(t, conn, dbtest.OrderSeed{SessionToken: &token, SessionID: "cs_a1"})
	seedTransaction(t, repo, anonOrder, "cs_a1")

	page, err := svc.ListTransactions(ctx, user, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	assert.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListTransactions(ctx, user, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Transactions, 1)
	assert.Empty(t, rest.NextCursor)

	anonPage, err := svc.ListTransactions(ctx, anon, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, anonPage.Transactions, 1)
	assert.Equal(t, "cs_a1", anonPage.Transactions[0].SessionID)
	assert.Equal(t, anonOrder.ID, anonPage.Transactions[0].OrderID)

	_, err = svc.ListTransactions(ctx, identity.Identity{}, pagination.Params{})
	assert.Error(t, err)
}

func TestListTransactionsErrorCodes(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewTransactionRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()
	caller := identity.Anonymous("sess-1")

	_, err = svc.ListTransactions(ctx, caller, pagination.Params{Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.ListTransactions(ctx, caller, pagination.Params{})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestListTransactionsAdminSeesAll(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewTransactionRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)

	userID := uuid.New()
	token := "sess-7"
	seedTransaction(t, repo, dbtest.SeedOrder(t, conn, dbtest.OrderSeed{UserID: &userID, SessionID: "cs_u"}), "cs_u")
	seedTransaction(t, repo, dbtest.SeedOrder(t, conn, dbtest.OrderSeed{SessionToken: &token, SessionID: "cs_a"}), "cs_a")

	admin := identity.User(uuid.New(), enums.UserRoleAdmin)
	page, err := svc.ListTransactions(context.Background(), admin, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 2)

	customer := identity.User(uuid.New(), enums.UserRoleCustomer)
	page, err = svc.ListTransactions(context.Background(), customer, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)
}

func TestGetTransactionIsOwnerScoped(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewTransactionRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	token := "sess-9"
	userTxn := seedTransaction(t, repo, dbtest.SeedOrder(t, conn, dbtest.OrderSeed{UserID: &userID, SessionID: "cs_u"}), "cs_u")
	anonTxn := seedTransaction(t, repo, dbtest.SeedOrder(t, conn, dbtest.OrderSeed{SessionToken: &token, SessionID: "cs_a"}), "cs_a")

	got, err := svc.GetTransaction(ctx, identity.User(userID, enums.UserRoleCustomer), userTxn.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_u", got.SessionID)

	got, err = svc.GetTransaction(ctx, identity.Anonymous(token), anonTxn.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_a", got.SessionID)

	_, err = svc.GetTransaction(ctx, identity.Anonymous(token), userTxn.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.GetTransaction(ctx, identity.User(uuid.New(), enums.UserRoleCustomer), anonTxn.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.GetTransaction(ctx, identity.User(uuid.New(), enums.UserRoleAdmin), anonTxn.ID)
	assert.NoError(t, err)

	_, err = svc.GetTransaction(ctx, identity.User(userID, enums.UserRoleCustomer), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.GetTransaction(ctx, identity.Identity{}, userTxn.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}
