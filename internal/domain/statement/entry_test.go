package statement

import (
	"testing"
	"time"

	"github.com/finance-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntriesFromEvent(t *testing.T) {
	now := time.Now().UTC()

	t.Run("TransferProducesDebitAndCredit", func(t *testing.T) {
		entries, err := EntriesFromEvent(&shared.TransactionEvent{
			TransactionID:            "TX0123456789ABCDEF0123",
			Type:                     "TRANSFER",
			Status:                   "COMPLETED",
			Amount:                   "200.00",
			SourceAccountNumber:      "1000000001",
			DestinationAccountNumber: "1000000002",
			CreatedAt:                now,
			ProcessedAt:              &now,
		})
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "1000000001", entries[0].AccountNumber)
		assert.Equal(t, shared.EntryDirectionDebit, entries[0].Direction)
		assert.Equal(t, "1000000002", entries[0].CounterpartyAccountNumber)

		assert.Equal(t, "1000000002", entries[1].AccountNumber)
		assert.Equal(t, shared.EntryDirectionCredit, entries[1].Direction)
		assert.Equal(t, "1000000001", entries[1].CounterpartyAccountNumber)
		assert.Equal(t, "200.00", entries[1].Amount.String())
	})

	t.Run("DepositProducesCredit", func(t *testing.T) {
		entries, err := EntriesFromEvent(&shared.TransactionEvent{
			TransactionID:            "TX0123456789ABCDEF0124",
			Type:                     "DEPOSIT",
			Status:                   "FAILED",
			Amount:                   "10.50",
			DestinationAccountNumber: "1000000003",
			FailureReason:            "PERSISTENCE_FAILURE",
			CreatedAt:                now,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, shared.EntryDirectionCredit, entries[0].Direction)
		assert.Equal(t, "PERSISTENCE_FAILURE", entries[0].FailureReason)
		assert.Nil(t, entries[0].ProcessedAt)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		_, err := EntriesFromEvent(&shared.TransactionEvent{
			TransactionID:       "TX0123456789ABCDEF0125",
			Type:                "WITHDRAWAL",
			Status:              "COMPLETED",
			Amount:              "1.001",
			SourceAccountNumber: "1000000001",
		})
		assert.Error(t, err)
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, err := EntriesFromEvent(&shared.TransactionEvent{TransactionID: "TX"})
		assert.ErrorIs(t, err, shared.ErrInvalidEvent)
	})
}
