// Package transaction holds the transaction record and its status state machine.
// A record is created PENDING before any balance moves and ends either COMPLETED or
// FAILED. Terminal records never change again.
package transaction

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/google/uuid"
)

var (
	ErrNonPositiveAmount = errors.New("transaction amount must be greater than zero")
	ErrSameAccount       = errors.New("source and destination accounts must differ")
	ErrMissingAccount    = errors.New("transaction is missing a required account reference")
	ErrAlreadyTerminal   = errors.New("transaction already reached a terminal status")
)

// TransactionIDPrefix starts every external transaction identifier
const TransactionIDPrefix = "TX"

const transactionIDHexLen = 20

// Type enumerates the kinds of money movement
type Type string

const (
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdrawal Type = "WITHDRAWAL"
	TypeTransfer   Type = "TRANSFER"
	TypePayment    Type = "PAYMENT"
	TypeRefund     Type = "REFUND"
	TypeFee        Type = "FEE"
)

// Status is the transaction state machine position
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is an immutable money movement record. After creation only the status,
// failure reason and timestamps change.
type Transaction struct {
	ID                       int64        `json:"id"`
	TransactionID            string       `json:"transaction_id"`
	Amount                   money.Amount `json:"amount"`
	Type                     Type         `json:"type"`
	Description              string       `json:"description,omitempty"`
	Status                   Status       `json:"status"`
	SourceAccountNumber      string       `json:"source_account_number,omitempty"`
	DestinationAccountNumber string       `json:"destination_account_number,omitempty"`
	IdempotencyKey           string       `json:"idempotency_key,omitempty"`
	FailureReason            string       `json:"failure_reason,omitempty"`
	CreatedAt                time.Time    `json:"created_at"`
	UpdatedAt                time.Time    `json:"updated_at"`
	ProcessedAt              *time.Time   `json:"processed_at,omitempty"` // Set only on COMPLETED
}

// NewDeposit creates a PENDING deposit into destination
func NewDeposit(destination string, amount money.Amount, description string) (*Transaction, error) {
	if destination == "" {
		return nil, ErrMissingAccount
	}
	return newPending(TypeDeposit, "", destination, amount, description)
}

// NewWithdrawal creates a PENDING withdrawal from source
func NewWithdrawal(source string, amount money.Amount, description string) (*Transaction, error) {
	if source == "" {
		return nil, ErrMissingAccount
	}
	return newPending(TypeWithdrawal, source, "", amount, description)
}

// NewTransfer creates a PENDING transfer from source to destination
func NewTransfer(source, destination string, amount money.Amount, description string) (*Transaction, error) {
	if source == "" || destination == "" {
		return nil, ErrMissingAccount
	}
	if source == destination {
		return nil, ErrSameAccount
	}
	return newPending(TypeTransfer, source, destination, amount, description)
}

func newPending(typ Type, source, destination string, amount money.Amount, description string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}

	now := time.Now().UTC()
	return &Transaction{
		Amount:                   amount,
		Type:                     typ,
		Description:              strings.TrimSpace(description),
		Status:                   StatusPending,
		SourceAccountNumber:      source,
		DestinationAccountNumber: destination,
		CreatedAt:                now,
		UpdatedAt:                now,
	}, nil
}

// WithIdempotencyKey attaches the caller supplied key
func (t *Transaction) WithIdempotencyKey(key string) *Transaction {
	t.IdempotencyKey = key
	return t
}

// Complete moves a PENDING transaction to COMPLETED. The processed timestamp is never
// earlier than the creation timestamp.
func (t *Transaction) Complete(now time.Time) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyTerminal, t.TransactionID, t.Status)
	}
	now = now.UTC()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}

	t.Status = StatusCompleted
	t.ProcessedAt = &now
	t.UpdatedAt = now
	return nil
}

// Fail moves a PENDING transaction to FAILED. ProcessedAt stays nil.
func (t *Transaction) Fail(reason string, now time.Time) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyTerminal, t.TransactionID, t.Status)
	}

	t.Status = StatusFailed
	t.FailureReason = reason
	t.ProcessedAt = nil
	t.UpdatedAt = now.UTC()
	return nil
}

// SameShape reports whether other describes the same money movement. Used to decide
// whether a repeated idempotency key is a replay or a conflicting request.
func (t *Transaction) SameShape(typ Type, source, destination string, amount money.Amount) bool {
	return t.Type == typ &&
		t.SourceAccountNumber == source &&
		t.DestinationAccountNumber == destination &&
		t.Amount.Equal(amount)
}

// AccountNumbers returns the account numbers the transaction touches
func (t *Transaction) AccountNumbers() []string {
	numbers := make([]string, 0, 2)
	if t.SourceAccountNumber != "" {
		numbers = append(numbers, t.SourceAccountNumber)
	}
	if t.DestinationAccountNumber != "" {
		numbers = append(numbers, t.DestinationAccountNumber)
	}
	return numbers
}

// GenerateTransactionID returns "TX" followed by 20 uppercase hex characters.
// Uniqueness is enforced by the store, which retries on collision.
func GenerateTransactionID() string {
	id := uuid.New()
	return TransactionIDPrefix + strings.ToUpper(hex.EncodeToString(id[:])[:transactionIDHexLen])
}

// ValidateTransactionID checks the external identifier format
func ValidateTransactionID(id string) bool {
	if len(id) != len(TransactionIDPrefix)+transactionIDHexLen || !strings.HasPrefix(id, TransactionIDPrefix) {
		return false
	}
	_, err := hex.DecodeString(id[len(TransactionIDPrefix):])
	return err == nil && strings.ToUpper(id) == id
}
