package engine

import (
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/transaction"
)

// OperationValidatorImpl implements the OperationValidator interface
type OperationValidatorImpl struct {
	logger *slog.Logger
}

func NewOperationValidator(logger *slog.Logger) *OperationValidatorImpl {
	return &OperationValidatorImpl{logger: logger}
}

// Validate checks amount positivity and account references. Same-account transfers
// are rejected here, before any lock is taken.
func (v *OperationValidatorImpl) Validate(op Operation) error {
	if !op.Amount.IsPositive() {
		v.logger.Debug("Rejected non-positive amount", "type", string(op.Type), "amount", op.Amount.String())
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !op.Amount.InRange() {
		v.logger.Debug("Rejected oversized amount", "type", string(op.Type))
		return fmt.Errorf("%w: %w", ErrInvalidAmount, money.ErrOutOfRange)
	}

	switch op.Type {
	case transaction.TypeDeposit:
		if op.Destination == "" {
			return ErrMissingAccount
		}
	case transaction.TypeWithdrawal:
		if op.Source == "" {
			return ErrMissingAccount
		}
	case transaction.TypeTransfer:
		if op.Source == "" || op.Destination == "" {
			return ErrMissingAccount
		}
		if op.Source == op.Destination {
			v.logger.Debug("Rejected same-account transfer", "account_number", op.Source)
			return ErrSameAccount
		}
	default:
		return ErrInvalidTransaction
	}

	return nil
}
