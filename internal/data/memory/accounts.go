package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/engine"
)

type accountRepository struct {
	store *Store
	unit  *unit // nil outside a unit of work
}

func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	if r.unit == nil {
		return r.store.RunInUnit(ctx, func(ctx context.Context, uow engine.UnitOfWork) error {
			return uow.Accounts().Create(ctx, acc)
		})
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number := s.generateAccountNumber()
		if _, taken := s.accounts[number]; taken {
			continue
		}
		if _, staged := r.unit.accounts[number]; staged {
			continue
		}

		s.nextAccountID++
		acc.ID = s.nextAccountID
		acc.AccountNumber = number
		r.unit.accounts[number] = cloneAccount(acc)
		r.unit.created[number] = true
		return nil
	}

	return fmt.Errorf("failed to create account: %w", account.ErrDuplicateAccountNumber{})
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	r.store.mu.Lock()
	number, ok := r.store.accountIDs[id]
	r.store.mu.Unlock()
	if !ok {
		return nil, account.ErrAccountNotFound{ID: id}
	}
	return r.GetByNumber(ctx, number)
}

func (r *accountRepository) GetByNumber(_ context.Context, accountNumber string) (*account.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if acc := r.lookupLocked(accountNumber); acc != nil {
		return cloneAccount(acc), nil
	}
	return nil, account.ErrAccountNotFound{AccountNumber: accountNumber}
}

func (r *accountRepository) ListByOwner(_ context.Context, kind account.OwnerKind, ownerID int64) ([]*account.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	accounts := make([]*account.Account, 0)
	for _, acc := range r.store.accounts {
		if k, id := acc.Owner(); k == kind && id == ownerID {
			accounts = append(accounts, cloneAccount(acc))
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// GetForUpdate blocks until the account lock is free. The lock is held by the unit
// until it commits or rolls back.
func (r *accountRepository) GetForUpdate(ctx context.Context, accountNumber string) (*account.Account, error) {
	if r.unit == nil {
		return nil, fmt.Errorf("failed to lock account %s: no unit of work", accountNumber)
	}
	if _, err := r.GetByNumber(ctx, accountNumber); err != nil {
		return nil, err
	}

	if !r.unit.holds(accountNumber) {
		if err := r.store.acquire(ctx, accountNumber); err != nil {
			return nil, fmt.Errorf("failed to lock account %s: %w", accountNumber, err)
		}
		r.unit.held = append(r.unit.held, accountNumber)
	}

	return r.GetByNumber(ctx, accountNumber)
}

// Save stages the account. The version must match what the unit last saw.
func (r *accountRepository) Save(ctx context.Context, acc *account.Account) error {
	if r.unit == nil {
		return r.store.RunInUnit(ctx, func(ctx context.Context, uow engine.UnitOfWork) error {
			return uow.Accounts().Save(ctx, acc)
		})
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current := r.lookupLocked(acc.AccountNumber)
	if current == nil {
		return account.ErrAccountNotFound{AccountNumber: acc.AccountNumber}
	}
	if current.Version != acc.Version {
		return account.ErrConcurrentModification{AccountNumber: acc.AccountNumber}
	}

	if _, seen := r.unit.baseVersion[acc.AccountNumber]; !seen && !r.unit.created[acc.AccountNumber] {
		r.unit.baseVersion[acc.AccountNumber] = current.Version
	}

	staged := cloneAccount(acc)
	staged.Version++
	r.unit.accounts[acc.AccountNumber] = staged
	acc.Version++
	return nil
}

// lookupLocked prefers the unit's staged copy over committed state
func (r *accountRepository) lookupLocked(accountNumber string) *account.Account {
	if r.unit != nil {
		if acc, ok := r.unit.accounts[accountNumber]; ok {
			return acc
		}
	}
	return r.store.accounts[accountNumber]
}
