package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionRowColumns = []string{"id", "transaction_id", "amount", "type", "description", "status", "source_account_number", "destination_account_number", "idempotency_key", "failure_reason", "created_at", "updated_at", "processed_at"}

func newTransactionRepo(mock pgxmock.PgxPoolIface, ids ...string) *TransactionRepository {
	i := 0
	return &TransactionRepository{
		querier: mock,
		logger:  newTestLogger(),
		generateID: func() string {
			id := ids[i%len(ids)]
			i++
			return id
		},
	}
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()
	query := `INSERT INTO transactions \(transaction_id, amount, type, description, status, source_account_number, destination_account_number, idempotency_key, created_at, updated_at\)`

	newTransfer := func(t *testing.T) *transaction.Transaction {
		txn, err := transaction.NewTransfer("1000000001", "1000000002", money.MustParse("200.00"), "rent")
		require.NoError(t, err)
		return txn
	}

	t.Run("success", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := newTransactionRepo(mock, "TX00000000000000000001")
		txn := newTransfer(t)

		mock.ExpectQuery(query).
			WithArgs("TX00000000000000000001", "200.00", "TRANSFER", "rent", "PENDING",
				strPtr("1000000001"), strPtr("1000000002"), (*string)(nil), txn.CreatedAt, txn.UpdatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(21)))

		require.NoError(t, repo.Create(ctx, txn))
		assert.Equal(t, int64(21), txn.ID)
		assert.Equal(t, "TX00000000000000000001", txn.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("id collision is retried", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := newTransactionRepo(mock, "TX00000000000000000001", "TX00000000000000000002")
		txn := newTransfer(t)

		mock.ExpectQuery(query).WithArgs("TX00000000000000000001", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(query).WithArgs("TX00000000000000000002", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(22)))

		require.NoError(t, repo.Create(ctx, txn))
		assert.Equal(t, "TX00000000000000000002", txn.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("idempotency key held by live record", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := newTransactionRepo(mock, "TX00000000000000000001")
		txn := newTransfer(t).WithIdempotencyKey("key-1")

		mock.ExpectQuery(query).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: idempotencyKeyIndex})

		err = repo.Create(ctx, txn)
		assert.ErrorIs(t, err, transaction.ErrDuplicateIdempotencyKey{Key: "key-1"})
		assert.Empty(t, txn.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := newTransactionRepo(mock, "TX00000000000000000001")

		expectedErr := errors.New("db error")
		mock.ExpectQuery(query).WillReturnError(expectedErr)

		err = repo.Create(ctx, newTransfer(t))
		assert.ErrorIs(t, err, expectedErr)
		assert.ErrorContains(t, err, "failed to create transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newTransactionRepo(mock, "unused")
	query := `UPDATE transactions\s+SET status = \$1, failure_reason = \$2, processed_at = \$3, updated_at = \$4\s+WHERE transaction_id = \$5 AND status = 'PENDING'`

	t.Run("completed", func(t *testing.T) {
		txn, err := transaction.NewDeposit("1000000001", money.MustParse("5.00"), "")
		require.NoError(t, err)
		txn.TransactionID = "TX00000000000000000001"
		require.NoError(t, txn.Complete(time.Now()))

		mock.ExpectExec(query).
			WithArgs("COMPLETED", "", txn.ProcessedAt, txn.UpdatedAt, "TX00000000000000000001").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.UpdateStatus(ctx, txn))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already terminal", func(t *testing.T) {
		txn, err := transaction.NewDeposit("1000000001", money.MustParse("5.00"), "")
		require.NoError(t, err)
		txn.TransactionID = "TX00000000000000000002"
		require.NoError(t, txn.Fail("ABANDONED", time.Now()))

		mock.ExpectExec(query).
			WithArgs("FAILED", "ABANDONED", (*time.Time)(nil), txn.UpdatedAt, "TX00000000000000000002").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.UpdateStatus(ctx, txn)
		assert.ErrorIs(t, err, transaction.ErrTransactionNotPending{TransactionID: "TX00000000000000000002"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByTransactionID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newTransactionRepo(mock, "unused")
	now := time.Now().UTC()
	query := `FROM transactions\s+WHERE transaction_id = \$1`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(transactionRowColumns).
			AddRow(int64(1), "TX00000000000000000001", "500.00", "DEPOSIT", "salary", "COMPLETED",
				(*string)(nil), strPtr("1000000001"), strPtr("key-1"), "", now, now, &now)
		mock.ExpectQuery(query).WithArgs("TX00000000000000000001").WillReturnRows(rows)

		txn, err := repo.GetByTransactionID(ctx, "TX00000000000000000001")
		require.NoError(t, err)
		assert.Equal(t, transaction.TypeDeposit, txn.Type)
		assert.Equal(t, transaction.StatusCompleted, txn.Status)
		assert.Equal(t, "500.00", txn.Amount.String())
		assert.Empty(t, txn.SourceAccountNumber)
		assert.Equal(t, "1000000001", txn.DestinationAccountNumber)
		assert.Equal(t, "key-1", txn.IdempotencyKey)
		require.NotNil(t, txn.ProcessedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("TX00000000000000000009").WillReturnError(pgx.ErrNoRows)

		txn, err := repo.GetByTransactionID(ctx, "TX00000000000000000009")
		assert.Nil(t, txn)
		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newTransactionRepo(mock, "unused")
	query := `WHERE idempotency_key = \$1 AND status <> 'FAILED'`

	mock.ExpectQuery(query).WithArgs("fresh").WillReturnError(pgx.ErrNoRows)
	txn, err := repo.GetByIdempotencyKey(ctx, "fresh")
	assert.NoError(t, err)
	assert.Nil(t, txn)

	mock.ExpectQuery(query).WithArgs("broken").WillReturnError(errors.New("db error"))
	_, err = repo.GetByIdempotencyKey(ctx, "broken")
	assert.ErrorContains(t, err, "failed to get transaction by idempotency key")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_ListByAccount(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newTransactionRepo(mock, "unused")
	now := time.Now().UTC()

	rows := pgxmock.NewRows(transactionRowColumns).
		AddRow(int64(2), "TX00000000000000000002", "200.00", "TRANSFER", "", "COMPLETED",
			strPtr("1000000001"), strPtr("1000000002"), (*string)(nil), "", now, now, &now).
		AddRow(int64(1), "TX00000000000000000001", "50.00", "WITHDRAWAL", "", "FAILED",
			strPtr("1000000001"), (*string)(nil), (*string)(nil), "PERSISTENCE_FAILURE", now, now, (*time.Time)(nil))
	mock.ExpectQuery(`WHERE source_account_number = \$1 OR destination_account_number = \$1\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("1000000001", 20, 0).
		WillReturnRows(rows)

	txns, err := repo.ListByAccount(ctx, "1000000001", 20, 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, transaction.TypeTransfer, txns[0].Type)
	assert.Equal(t, "PERSISTENCE_FAILURE", txns[1].FailureReason)
	assert.Nil(t, txns[1].ProcessedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_CountByAccount(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newTransactionRepo(mock, "unused")

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM transactions`).
		WithArgs("1000000001").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := repo.CountByAccount(ctx, "1000000001")
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_ListByAccountAndRange(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newTransactionRepo(mock, "unused")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery(`AND created_at >= \$2 AND created_at <= \$3\s+ORDER BY created_at ASC, id ASC`).
		WithArgs("1000000001", from, to).
		WillReturnRows(pgxmock.NewRows(transactionRowColumns))

	txns, err := repo.ListByAccountAndRange(ctx, "1000000001", from, to)
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.NotNil(t, txns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_ListStalePending(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newTransactionRepo(mock, "unused")
	cutoff := time.Now().Add(-5 * time.Minute).UTC()
	created := cutoff.Add(-time.Minute)

	rows := pgxmock.NewRows(transactionRowColumns).
		AddRow(int64(3), "TX00000000000000000003", "10.00", "DEPOSIT", "", "PENDING",
			(*string)(nil), strPtr("1000000001"), (*string)(nil), "", created, created, (*time.Time)(nil))
	mock.ExpectQuery(`WHERE status = 'PENDING' AND created_at < \$1\s+ORDER BY created_at ASC\s+LIMIT \$2\s+FOR UPDATE SKIP LOCKED`).
		WithArgs(cutoff, 100).
		WillReturnRows(rows)

	txns, err := repo.ListStalePending(ctx, cutoff, 100)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, transaction.StatusPending, txns[0].Status)

	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).WithArgs(cutoff, 100).WillReturnError(errors.New("db error"))
	_, err = repo.ListStalePending(ctx, cutoff, 100)
	assert.ErrorContains(t, err, "failed to list stale pending transactions")

	assert.NoError(t, mock.ExpectationsWereMet())
}
