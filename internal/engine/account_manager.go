package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/logger"
)

// AccountManagerImpl implements the AccountManager interface
type AccountManagerImpl struct {
	logger *slog.Logger
}

// NewAccountManager creates a new AccountManagerImpl
func NewAccountManager(logger *slog.Logger) *AccountManagerImpl {
	return &AccountManagerImpl{logger: logger}
}

// LockAccounts takes the exclusive lock on every account the operation touches, in
// ascending account number order regardless of which side is the source. Two transfers
// over the same pair in opposite directions therefore queue instead of deadlocking.
func (m *AccountManagerImpl) LockAccounts(ctx context.Context, repo account.Repository, op Operation) (map[string]*account.Account, error) {
	log := logger.FromContext(ctx, m.logger)

	locked := make(map[string]*account.Account, 2)
	for _, number := range op.AccountNumbers() {
		acc, err := repo.GetForUpdate(ctx, number)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{}) {
				log.Warn("Account not found for lock", "account_number", number)
				return nil, err
			}
			log.Error("Failed to lock account", "account_number", number, "error", err)
			return nil, fmt.Errorf("failed to lock account %s: %w", number, err)
		}
		log.Debug("Account locked", "account_number", number, "balance", acc.Balance.String(), "version", acc.Version)
		locked[number] = acc
	}

	return locked, nil
}

// CheckPreconditions verifies the locked accounts are ACTIVE, the source can cover the
// amount and the destination balance stays storable. Nothing has been written when this fails.
func (m *AccountManagerImpl) CheckPreconditions(op Operation, locked map[string]*account.Account) error {
	for _, number := range op.AccountNumbers() {
		if err := locked[number].EnsureActive(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
		}
	}

	if op.Source != "" {
		source := locked[op.Source]
		if !source.CanDebit(op.Amount) {
			return fmt.Errorf("%w: account %s has %s, requested %s",
				ErrInsufficientFunds, source.AccountNumber, source.Balance, op.Amount)
		}
	}

	if op.Destination != "" {
		destination := locked[op.Destination]
		if !destination.CanCredit(op.Amount) {
			return fmt.Errorf("%w: %w: account %s cannot take %s",
				ErrInvalidAmount, money.ErrOutOfRange, destination.AccountNumber, op.Amount)
		}
	}

	return nil
}

// Apply debits the source, credits the destination and saves both through repo
func (m *AccountManagerImpl) Apply(ctx context.Context, repo account.Repository, op Operation, locked map[string]*account.Account) error {
	log := logger.FromContext(ctx, m.logger)

	if op.Source != "" {
		source := locked[op.Source]
		if err := source.Debit(op.Amount); err != nil {
			return err
		}
		if err := repo.Save(ctx, source); err != nil {
			log.Error("Failed to save debited account", "account_number", source.AccountNumber, "error", err)
			return err
		}
	}

	if op.Destination != "" {
		destination := locked[op.Destination]
		if err := destination.Credit(op.Amount); err != nil {
			return err
		}
		if err := repo.Save(ctx, destination); err != nil {
			log.Error("Failed to save credited account", "account_number", destination.AccountNumber, "error", err)
			return err
		}
	}

	return nil
}
