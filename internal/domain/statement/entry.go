package statement

import (
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/shared"
)

// Entry is one line of an account's activity feed, projected from a transaction event.
// A transfer produces two entries, one per affected account.
type Entry struct {
	TransactionID             string                `json:"transaction_id"`
	AccountNumber             string                `json:"account_number"`
	Type                      string                `json:"type"`
	Direction                 shared.EntryDirection `json:"direction"`
	Amount                    money.Amount          `json:"amount"`
	Status                    string                `json:"status"`
	CounterpartyAccountNumber string                `json:"counterparty_account_number,omitempty"`
	Description               string                `json:"description,omitempty"`
	FailureReason             string                `json:"failure_reason,omitempty"`
	CorrelationID             string                `json:"correlation_id,omitempty"`
	CreatedAt                 time.Time             `json:"created_at"`
	ProcessedAt               *time.Time            `json:"processed_at,omitempty"`
}

// EntriesFromEvent builds the debit entry for the source account and the credit entry
// for the destination account, whichever apply
func EntriesFromEvent(event *shared.TransactionEvent) ([]*Entry, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	amount, err := money.Parse(event.Amount)
	if err != nil {
		return nil, err
	}

	base := Entry{
		TransactionID: event.TransactionID,
		Type:          event.Type,
		Amount:        amount,
		Status:        event.Status,
		Description:   event.Description,
		FailureReason: event.FailureReason,
		CorrelationID: event.CorrelationID,
		CreatedAt:     event.CreatedAt,
		ProcessedAt:   event.ProcessedAt,
	}

	entries := make([]*Entry, 0, 2)
	if event.SourceAccountNumber != "" {
		debit := base
		debit.AccountNumber = event.SourceAccountNumber
		debit.Direction = shared.EntryDirectionDebit
		debit.CounterpartyAccountNumber = event.DestinationAccountNumber
		entries = append(entries, &debit)
	}
	if event.DestinationAccountNumber != "" {
		credit := base
		credit.AccountNumber = event.DestinationAccountNumber
		credit.Direction = shared.EntryDirectionCredit
		credit.CounterpartyAccountNumber = event.SourceAccountNumber
		entries = append(entries, &credit)
	}
	return entries, nil
}
