package engine

import (
	"strings"
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/transaction"
)

// DepositCommand credits AccountNumber
type DepositCommand struct {
	AccountNumber  string
	Amount         money.Amount
	Description    string
	IdempotencyKey string
}

// WithdrawCommand debits AccountNumber
type WithdrawCommand struct {
	AccountNumber  string
	Amount         money.Amount
	Description    string
	IdempotencyKey string
}

// TransferCommand moves Amount from SourceAccountNumber to DestinationAccountNumber
type TransferCommand struct {
	SourceAccountNumber      string
	DestinationAccountNumber string
	Amount                   money.Amount
	Description              string
	IdempotencyKey           string
}

// Operation is the command-independent shape of one money movement
type Operation struct {
	Type           transaction.Type
	Source         string
	Destination    string
	Amount         money.Amount
	Description    string
	IdempotencyKey string
}

func (c DepositCommand) operation() Operation {
	return Operation{
		Type:           transaction.TypeDeposit,
		Destination:    strings.TrimSpace(c.AccountNumber),
		Amount:         c.Amount,
		Description:    c.Description,
		IdempotencyKey: strings.TrimSpace(c.IdempotencyKey),
	}
}

func (c WithdrawCommand) operation() Operation {
	return Operation{
		Type:           transaction.TypeWithdrawal,
		Source:         strings.TrimSpace(c.AccountNumber),
		Amount:         c.Amount,
		Description:    c.Description,
		IdempotencyKey: strings.TrimSpace(c.IdempotencyKey),
	}
}

func (c TransferCommand) operation() Operation {
	return Operation{
		Type:           transaction.TypeTransfer,
		Source:         strings.TrimSpace(c.SourceAccountNumber),
		Destination:    strings.TrimSpace(c.DestinationAccountNumber),
		Amount:         c.Amount,
		Description:    c.Description,
		IdempotencyKey: strings.TrimSpace(c.IdempotencyKey),
	}
}

// AccountNumbers returns the touched accounts in canonical lock order
func (op Operation) AccountNumbers() []string {
	switch {
	case op.Source == "":
		return []string{op.Destination}
	case op.Destination == "":
		return []string{op.Source}
	case op.Source < op.Destination:
		return []string{op.Source, op.Destination}
	default:
		return []string{op.Destination, op.Source}
	}
}

func (op Operation) newTransaction() (*transaction.Transaction, error) {
	var (
		txn *transaction.Transaction
		err error
	)
	switch op.Type {
	case transaction.TypeDeposit:
		txn, err = transaction.NewDeposit(op.Destination, op.Amount, op.Description)
	case transaction.TypeWithdrawal:
		txn, err = transaction.NewWithdrawal(op.Source, op.Amount, op.Description)
	default:
		txn, err = transaction.NewTransfer(op.Source, op.Destination, op.Amount, op.Description)
	}
	if err != nil {
		return nil, err
	}
	if op.IdempotencyKey != "" {
		txn.WithIdempotencyKey(op.IdempotencyKey)
	}
	return txn, nil
}

// Result is what a caller gets back from a completed operation
type Result struct {
	TransactionID            string             `json:"transaction_id"`
	Amount                   money.Amount       `json:"amount"`
	Type                     transaction.Type   `json:"type"`
	Status                   transaction.Status `json:"status"`
	Description              string             `json:"description,omitempty"`
	SourceAccountNumber      string             `json:"source_account_number,omitempty"`
	DestinationAccountNumber string             `json:"destination_account_number,omitempty"`
	CreatedAt                time.Time          `json:"created_at"`
	ProcessedAt              *time.Time         `json:"processed_at,omitempty"`
	Replayed                 bool               `json:"-"`
}

// NewResult converts a transaction record into a Result
func NewResult(txn *transaction.Transaction) *Result {
	return &Result{
		TransactionID:            txn.TransactionID,
		Amount:                   txn.Amount,
		Type:                     txn.Type,
		Status:                   txn.Status,
		Description:              txn.Description,
		SourceAccountNumber:      txn.SourceAccountNumber,
		DestinationAccountNumber: txn.DestinationAccountNumber,
		CreatedAt:                txn.CreatedAt,
		ProcessedAt:              txn.ProcessedAt,
	}
}

func (r *Result) matches(op Operation) bool {
	return r.Type == op.Type &&
		r.SourceAccountNumber == op.Source &&
		r.DestinationAccountNumber == op.Destination &&
		r.Amount.Equal(op.Amount)
}
