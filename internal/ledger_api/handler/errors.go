package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/owner"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
	"github.com/finance-ledger/internal/statement"
	"github.com/gin-gonic/gin"
)

// respondWithError translates a service error into the response envelope.
// ErrAccountNotActive is checked before ErrInvalidTransaction because the engine
// reports it wrapped in both.
func respondWithError(c *gin.Context, log *slog.Logger, err error) {
	var notActive account.ErrAccountNotActive

	switch {
	case errors.Is(err, account.ErrAccountNotFound{}):
		RespondNotFound(c, "Account not found")
	case errors.Is(err, transaction.ErrTransactionNotFound{}):
		RespondNotFound(c, "Transaction not found")
	case errors.Is(err, owner.ErrOwnerNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, owner.ErrDuplicateOwner{}):
		RespondWithError(c, http.StatusConflict, "ALREADY_EXISTS", err.Error())
	case errors.Is(err, owner.ErrOwnerHasAccounts{}):
		RespondWithError(c, http.StatusConflict, "OWNER_HAS_ACCOUNTS", err.Error())
	case errors.As(err, &notActive):
		RespondUnprocessable(c, "ACCOUNT_NOT_ACTIVE", notActive.Error())
	case errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidFormat),
		errors.Is(err, money.ErrTooManyDecimals),
		errors.Is(err, money.ErrOutOfRange),
		errors.Is(err, money.ErrEmptyAmountString):
		RespondUnprocessable(c, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, engine.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Insufficient funds")
	case errors.Is(err, engine.ErrInvalidTransaction):
		RespondUnprocessable(c, "INVALID_TRANSACTION", err.Error())
	case errors.Is(err, engine.ErrIdempotencyKeyMismatch):
		RespondWithError(c, http.StatusConflict, "IDEMPOTENCY_KEY_MISMATCH", err.Error())
	case errors.Is(err, engine.ErrRequestInProgress):
		RespondWithError(c, http.StatusConflict, "REQUEST_IN_PROGRESS", err.Error())
	case errors.Is(err, statement.ErrInvalidDateRange),
		errors.Is(err, statement.ErrInvalidPage),
		errors.Is(err, account.ErrInvalidOwner),
		errors.Is(err, account.ErrInvalidType),
		errors.Is(err, account.ErrInvalidStatus),
		errors.Is(err, account.ErrNegativeOpening),
		errors.Is(err, account.ErrNegativeLimit),
		errors.Is(err, owner.ErrInvalidDetails):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, statement.ErrActivityUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Activity feed is not available")
	case errors.Is(err, context.DeadlineExceeded):
		log.Error("Request timed out", "error", err)
		RespondWithError(c, http.StatusGatewayTimeout, "TIMEOUT", "The request timed out")
	default:
		log.Error("Request failed", "error", err)
		RespondInternalError(c)
	}
}
