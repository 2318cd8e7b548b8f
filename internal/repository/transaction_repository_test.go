package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCreatedTransaction(t *testing.T, repo *TransactionRepository) *model.Transaction {
	t.Helper()
	created, err := repo.Create(context.Background(), &model.Transaction{
		Amount:      5000,
		Description: "Printer paper",
		Status:      model.StatusCreated,
		VendorID:    "vendor-1",
		VendorName:  "Staples Inc.",
		VendorEmail: "contact@staples.example",
	})
	require.NoError(t, err)
	return created
}

func TestTransactionRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	created := newCreatedTransaction(t, repo)
	assert.NotEmpty(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCreated, got.Status)
	assert.Equal(t, int64(5000), got.Amount)
	assert.Equal(t, "Printer paper", got.Description)
	assert.Empty(t, got.AgentID)
	assert.Empty(t, got.Department)
	assert.Empty(t, got.PaystackReference)
	assert.Nil(t, got.PaidAt)

	_, err = repo.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestTransactionRepository_SubmitForApproval(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	txn := newCreatedTransaction(t, repo)

	err := repo.SubmitForApproval(ctx, txn.ID, "agent-1", "org-1", "Office Management")
	require.NoError(t, err)

	got, err := repo.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, got.Status)
	assert.Equal(t, "agent-1", got.AgentID)
	assert.Equal(t, "org-1", got.OrganizationID)
	assert.Equal(t, "Office Management", got.Department)

	t.Run("second submit loses", func(t *testing.T) {
		err := repo.SubmitForApproval(ctx, txn.ID, "agent-2", "org-1", "Office Management")
		assert.ErrorIs(t, err, ErrStatusConflict)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := repo.SubmitForApproval(ctx, "missing", "agent-1", "org-1", "Office Management")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestTransactionRepository_SubmitForApproval_FromScanned(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewTransactionRepository(tdb.DB)
	ctx := context.Background()

	txn := newCreatedTransaction(t, repo)
	require.NoError(t, tdb.rawDB.Model(&TransactionEntity{}).
		Where("id = ?", txn.ID).
		Update("status", string(model.StatusScanned)).Error)

	err := repo.SubmitForApproval(ctx, txn.ID, "agent-1", "org-1", "Office Management")
	require.NoError(t, err)

	got, err := repo.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, got.Status)
}

func TestTransactionRepository_BeginPayment_ConcurrentApprovers(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	txn := newCreatedTransaction(t, repo)
	require.NoError(t, repo.SubmitForApproval(ctx, txn.ID, "agent-1", "org-1", "Office Management"))

	// both approvers observed PENDING_APPROVAL before acting; the
	// conditional write lets exactly one through
	first := repo.BeginPayment(ctx, txn.ID, "admin-1")
	second := repo.BeginPayment(ctx, txn.ID, "admin-2")

	require.NoError(t, first)
	assert.ErrorIs(t, second, ErrStatusConflict)

	got, err := repo.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaymentInProgress, got.Status)
	assert.Equal(t, "admin-1", got.AdminID)
}

func TestTransactionRepository_MarkPaid_Idempotent(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	txn := newCreatedTransaction(t, repo)
	require.NoError(t, repo.SubmitForApproval(ctx, txn.ID, "agent-1", "org-1", "Office Management"))
	require.NoError(t, repo.BeginPayment(ctx, txn.ID, "admin-1"))
	require.NoError(t, repo.SetReference(ctx, txn.ID, "SP-ref-1"))

	paidAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkPaid(ctx, txn.ID, paidAt))

	got, err := repo.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
	firstPaidAt := *got.PaidAt

	// re-delivery must not touch the row again
	err = repo.MarkPaid(ctx, txn.ID, paidAt.Add(time.Hour))
	assert.ErrorIs(t, err, ErrStatusConflict)

	got, err = repo.Get(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, firstPaidAt, *got.PaidAt)
}

func TestTransactionRepository_MarkPaymentFailed(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	txn := newCreatedTransaction(t, repo)
	require.NoError(t, repo.SubmitForApproval(ctx, txn.ID, "agent-1", "org-1", "Office Management"))
	require.NoError(t, repo.BeginPayment(ctx, txn.ID, "admin-1"))

	require.NoError(t, repo.MarkPaymentFailed(ctx, txn.ID, "Transfer failed: insufficient balance"))

	got, err := repo.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaymentFailed, got.Status)
	assert.Equal(t, "Transfer failed: insufficient balance", got.PaymentError)

	// terminal: a late success event cannot resurrect it
	err = repo.MarkPaid(ctx, txn.ID, time.Now())
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestTransactionRepository_MarkRejected(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	txn := newCreatedTransaction(t, repo)
	require.NoError(t, repo.SubmitForApproval(ctx, txn.ID, "agent-1", "org-1", "Office Management"))

	require.NoError(t, repo.MarkRejected(ctx, txn.ID, "admin-1", "duplicate invoice"))

	got, err := repo.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
	assert.Equal(t, "duplicate invoice", got.RejectionReason)
	assert.Equal(t, "admin-1", got.AdminID)

	// approving a rejected transaction is a conflict
	err = repo.BeginPayment(ctx, txn.ID, "admin-2")
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestTransactionRepository_GetByReference(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	txn := newCreatedTransaction(t, repo)
	require.NoError(t, repo.SubmitForApproval(ctx, txn.ID, "agent-1", "org-1", "Office Management"))
	require.NoError(t, repo.BeginPayment(ctx, txn.ID, "admin-1"))
	require.NoError(t, repo.SetReference(ctx, txn.ID, "SP-ref-42"))

	got, err := repo.GetByReference(ctx, "SP-ref-42")
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)

	_, err = repo.GetByReference(ctx, "no-such-reference")
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	// the empty reference must never match un-initiated rows
	_, err = repo.GetByReference(ctx, "")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestTransactionRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		newCreatedTransaction(t, repo)
	}

	vendorID := "vendor-1"
	items, total, err := repo.List(ctx, model.TransactionFilter{VendorID: &vendorID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, items, 5)

	items, total, err = repo.List(ctx, model.TransactionFilter{VendorID: &vendorID, Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, items, 1)

	items, total, err = repo.List(ctx, model.TransactionFilter{
		VendorID: &vendorID,
		Statuses: []model.TransactionStatus{model.StatusPaid},
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Len(t, items, 0)
}
