package postgres

import (
	"context"
	"log/slog"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/owner"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
	"github.com/finance-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// Store runs every unit of work in its own database transaction
type Store struct {
	db           *persistence.PostgresDB
	accounts     *AccountRepository
	transactions *TransactionRepository
	outbox       *OutboxRepository
	owners       *OwnerRepository
}

var _ engine.Store = (*Store)(nil)

func NewStore(logger *slog.Logger, db *persistence.PostgresDB) *Store {
	return &Store{
		db:           db,
		accounts:     NewAccountRepository(logger, db),
		transactions: NewTransactionRepository(logger, db),
		outbox:       NewOutboxRepository(logger, db),
		owners:       NewOwnerRepository(logger, db),
	}
}

// RunInUnit begins a transaction, hands fn repositories bound to it and commits when fn
// returns nil. Row locks taken by fn are released at commit or rollback. A nested call
// begins a separate transaction on another pooled connection.
func (s *Store) RunInUnit(ctx context.Context, fn func(ctx context.Context, uow engine.UnitOfWork) error) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &unitOfWork{
			accounts:     s.accounts.WithTx(tx),
			transactions: s.transactions.WithTx(tx),
			outbox:       s.outbox.WithTx(tx),
		})
	})
}

func (s *Store) Accounts() account.Repository {
	return s.accounts
}

func (s *Store) Transactions() transaction.Repository {
	return s.transactions
}

// Outbox is used by the relay outside any unit of work
func (s *Store) Outbox() outbox.Repository {
	return s.outbox
}

// Owners is the client and merchant registry. Its writes never join a unit of work.
func (s *Store) Owners() owner.Repository {
	return s.owners
}

type unitOfWork struct {
	accounts     *AccountRepository
	transactions *TransactionRepository
	outbox       *OutboxRepository
}

func (u *unitOfWork) Accounts() account.Repository {
	return u.accounts
}

func (u *unitOfWork) Transactions() transaction.Repository {
	return u.transactions
}

func (u *unitOfWork) Outbox() outbox.Repository {
	return u.outbox
}
