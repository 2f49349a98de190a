package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/owner"
	"github.com/finance-ledger/internal/engine"
	"github.com/finance-ledger/internal/logger"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	store  engine.Store
	owners owner.Repository
	logger *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(logger *slog.Logger, store engine.Store, owners owner.Repository) *AccountServiceImpl {
	return &AccountServiceImpl{
		store:  store,
		owners: owners,
		logger: logger,
	}
}

// Open validates the request through the domain constructor, checks that the owner is
// registered and stores the account
func (s *AccountServiceImpl) Open(ctx context.Context, input OpenAccountInput) (*account.Account, error) {
	log := logger.FromContext(ctx, s.logger)

	acc, err := account.NewAccount(account.OpenParams{
		Type:           input.Type,
		ClientID:       input.ClientID,
		MerchantID:     input.MerchantID,
		InitialDeposit: input.InitialDeposit,
		AvailableLimit: input.AvailableLimit,
	})
	if err != nil {
		return nil, err
	}
	kind, ownerID := acc.Owner()
	if err := owner.EnsureExists(ctx, s.owners, kind, ownerID); err != nil {
		return nil, err
	}

	err = s.store.RunInUnit(ctx, func(ctx context.Context, uow engine.UnitOfWork) error {
		return uow.Accounts().Create(ctx, acc)
	})
	if err != nil {
		log.Error("Failed to open account", "type", string(acc.Type), "error", err)
		return nil, err
	}

	log.Info("Account opened",
		"account_number", acc.AccountNumber,
		"type", string(acc.Type),
		"owner_kind", string(kind),
		"owner_id", ownerID,
		"initial_deposit", acc.Balance.String(),
	)
	return acc, nil
}

// GetByNumber retrieves an account without locking it
func (s *AccountServiceImpl) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	if err := account.ValidateAccountNumber(accountNumber); err != nil {
		return nil, account.ErrAccountNotFound{AccountNumber: accountNumber}
	}
	return s.store.Accounts().GetByNumber(ctx, accountNumber)
}

// ListByOwner returns ErrOwnerNotFound for an unregistered owner rather than an empty list
func (s *AccountServiceImpl) ListByOwner(ctx context.Context, kind account.OwnerKind, ownerID int64) ([]*account.Account, error) {
	if err := owner.EnsureExists(ctx, s.owners, kind, ownerID); err != nil {
		return nil, err
	}
	return s.store.Accounts().ListByOwner(ctx, kind, ownerID)
}

// ChangeStatus holds the account lock while writing, so the change serializes with
// in-flight money movement on the same account
func (s *AccountServiceImpl) ChangeStatus(ctx context.Context, accountNumber string, status account.Status) (*account.Account, error) {
	if _, err := account.ParseStatus(string(status)); err != nil {
		return nil, err
	}

	var (
		updated  *account.Account
		previous account.Status
	)
	err := s.store.RunInUnit(ctx, func(ctx context.Context, uow engine.UnitOfWork) error {
		acc, err := uow.Accounts().GetForUpdate(ctx, accountNumber)
		if err != nil {
			return err
		}
		if previous, err = acc.ChangeStatus(status); err != nil {
			return err
		}
		if previous == status {
			updated = acc
			return nil
		}
		if err := uow.Accounts().Save(ctx, acc); err != nil {
			return fmt.Errorf("failed to save account status: %w", err)
		}
		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Account status changed",
		"account_number", accountNumber,
		"previous_status", string(previous),
		"status", string(status),
	)
	return updated, nil
}
