package account

import (
	"context"
	"strconv"
)

// Repository defines account persistence operations
type Repository interface {
	// Create assigns the id and a unique account number
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*Account, error)
	ListByOwner(ctx context.Context, kind OwnerKind, ownerID int64) ([]*Account, error)

	// GetForUpdate acquires an exclusive lock held until the enclosing unit of work ends
	GetForUpdate(ctx context.Context, accountNumber string) (*Account, error)

	// Save persists a mutated account, guarded by its version
	Save(ctx context.Context, account *Account) error
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountNumber string
	ID            int64
}

func (e ErrAccountNotFound) Error() string {
	if e.AccountNumber == "" && e.ID != 0 {
		return "account not found: id " + strconv.FormatInt(e.ID, 10)
	}
	return "account not found: " + e.AccountNumber
}

// Is matches any ErrAccountNotFound when the target carries no identifier
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountNumber == "" && t.ID == 0 {
		return true
	}
	return e.AccountNumber == t.AccountNumber && e.ID == t.ID
}

// ErrAccountNotActive indicates an account whose status forbids money movement
type ErrAccountNotActive struct {
	AccountNumber string
	Status        Status
}

func (e ErrAccountNotActive) Error() string {
	return "account " + e.AccountNumber + " is not active: " + string(e.Status)
}

func (e ErrAccountNotActive) Is(target error) bool {
	t, ok := target.(ErrAccountNotActive)
	if !ok {
		return false
	}
	if t.AccountNumber == "" {
		return true
	}
	return e.AccountNumber == t.AccountNumber
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountNumber string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountNumber
}

func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.AccountNumber == "" || e.AccountNumber == t.AccountNumber
}

// ErrDuplicateAccountNumber indicates account number uniqueness violation
type ErrDuplicateAccountNumber struct {
	AccountNumber string
}

func (e ErrDuplicateAccountNumber) Error() string {
	return "account number already exists: " + e.AccountNumber
}
