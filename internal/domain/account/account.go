package account

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrNegativeOpening      = errors.New("initial deposit cannot be negative")
	ErrNegativeLimit        = errors.New("available limit cannot be negative")
	ErrInvalidOwner         = errors.New("account must belong to exactly one client or merchant")
	ErrInvalidType          = errors.New("invalid account type")
	ErrInvalidStatus        = errors.New("invalid account status")
	ErrInvalidAccountNumber = errors.New("account number must be 10 digits")
)

// AccountNumberLength is the length of every generated account number
const AccountNumberLength = 10

// Type classifies an account product
type Type string

const (
	TypeChecking   Type = "CHECKING"
	TypeSavings    Type = "SAVINGS"
	TypeBusiness   Type = "BUSINESS"
	TypeInvestment Type = "INVESTMENT"
)

// ParseType validates a raw account type
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeChecking, TypeSavings, TypeBusiness, TypeInvestment:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Status gates participation in money movement; only ACTIVE accounts take part
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusBlocked  Status = "BLOCKED"
	StatusClosed   Status = "CLOSED"
)

// ParseStatus validates a raw account status
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusInactive, StatusBlocked, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// OwnerKind tells which kind of party holds the account
type OwnerKind string

const (
	OwnerClient   OwnerKind = "CLIENT"
	OwnerMerchant OwnerKind = "MERCHANT"
)

// Account represents a client or merchant account
type Account struct {
	ID             int64         `json:"id"`
	AccountNumber  string        `json:"account_number"`
	Type           Type          `json:"type"`
	Balance        money.Amount  `json:"balance"`
	AvailableLimit *money.Amount `json:"available_limit,omitempty"` // Informational, does not allow overdraft
	Status         Status        `json:"status"`
	ClientID       *int64        `json:"client_id,omitempty"`
	MerchantID     *int64        `json:"merchant_id,omitempty"`
	Version        int           `json:"version"` // For optimistic locking, bumped by the store on save
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// OpenParams holds everything needed to open an account
type OpenParams struct {
	Type           Type
	ClientID       *int64
	MerchantID     *int64
	InitialDeposit money.Amount
	AvailableLimit *money.Amount
}

// NewAccount creates an ACTIVE account. The account number is assigned by the store.
func NewAccount(p OpenParams) (*Account, error) {
	if _, err := ParseType(string(p.Type)); err != nil {
		return nil, err
	}
	if (p.ClientID == nil) == (p.MerchantID == nil) {
		return nil, ErrInvalidOwner
	}
	if p.InitialDeposit.IsNegative() {
		return nil, ErrNegativeOpening
	}
	if p.AvailableLimit != nil && p.AvailableLimit.IsNegative() {
		return nil, ErrNegativeLimit
	}

	now := time.Now().UTC()
	return &Account{
		Type:           p.Type,
		Balance:        p.InitialDeposit,
		AvailableLimit: p.AvailableLimit,
		Status:         StatusActive,
		ClientID:       p.ClientID,
		MerchantID:     p.MerchantID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Owner returns the kind and id of the party holding the account
func (a *Account) Owner() (OwnerKind, int64) {
	if a.ClientID != nil {
		return OwnerClient, *a.ClientID
	}
	if a.MerchantID != nil {
		return OwnerMerchant, *a.MerchantID
	}
	return "", 0
}

func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// EnsureActive returns ErrAccountNotActive unless the account may move money
func (a *Account) EnsureActive() error {
	if !a.IsActive() {
		return ErrAccountNotActive{AccountNumber: a.AccountNumber, Status: a.Status}
	}
	return nil
}

// Credit adds the specified amount to the account balance
func (a *Account) Credit(amount money.Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !a.CanCredit(amount) {
		return fmt.Errorf("account %s: %w", a.AccountNumber, money.ErrOutOfRange)
	}

	a.Balance = a.Balance.Add(amount)
	a.touch()
	return nil
}

// CanCredit reports whether the balance stays storable after adding amount
func (a *Account) CanCredit(amount money.Amount) bool {
	return a.Balance.Add(amount).InRange()
}

// Debit subtracts the specified amount from the account balance
func (a *Account) Debit(amount money.Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !a.CanDebit(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	a.touch()
	return nil
}

// CanDebit checks if the account has sufficient funds
func (a *Account) CanDebit(amount money.Amount) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ChangeStatus moves the account to a new administrative status and returns the previous one
func (a *Account) ChangeStatus(status Status) (Status, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return a.Status, err
	}
	previous := a.Status
	if previous == status {
		return previous, nil
	}

	a.Status = status
	a.touch()
	return previous, nil
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now().UTC()
}

// GenerateAccountNumber draws a 10 digit account number from a random UUID.
// Uniqueness is enforced by the store, which retries on collision.
func GenerateAccountNumber() string {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8]) % 10_000_000_000
	return fmt.Sprintf("%010d", n)
}

// ValidateAccountNumber checks the account number format
func ValidateAccountNumber(number string) error {
	if len(number) != AccountNumberLength {
		return ErrInvalidAccountNumber
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return ErrInvalidAccountNumber
		}
	}
	return nil
}
