package handler

import (
	"log/slog"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/engine"
	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/finance-ledger/internal/logger"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader carries the optional client-chosen key for money movement
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// TransactionHandler handles HTTP requests for money movement
type TransactionHandler struct {
	transactionService service.TransactionService
	statementService   service.StatementService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService, statementService service.StatementService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		statementService:   statementService,
		logger:             logger,
	}
}

// Deposit credits an account
func (h *TransactionHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	key, ok := h.bind(c, &req)
	if !ok {
		return
	}

	res, err := h.transactionService.Deposit(c.Request.Context(), engine.DepositCommand{
		AccountNumber:  req.AccountNumber,
		Amount:         money.MustParse(req.Amount),
		Description:    req.Description,
		IdempotencyKey: key,
	})
	h.respond(c, res, err)
}

// Withdraw debits an account
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	key, ok := h.bind(c, &req)
	if !ok {
		return
	}

	res, err := h.transactionService.Withdraw(c.Request.Context(), engine.WithdrawCommand{
		AccountNumber:  req.AccountNumber,
		Amount:         money.MustParse(req.Amount),
		Description:    req.Description,
		IdempotencyKey: key,
	})
	h.respond(c, res, err)
}

// Transfer moves funds from the source to the destination account
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	key, ok := h.bind(c, &req)
	if !ok {
		return
	}

	res, err := h.transactionService.Transfer(c.Request.Context(), engine.TransferCommand{
		SourceAccountNumber:      req.SourceAccountNumber,
		DestinationAccountNumber: req.DestinationAccountNumber,
		Amount:                   money.MustParse(req.Amount),
		Description:              req.Description,
		IdempotencyKey:           key,
	})
	h.respond(c, res, err)
}

// GetByID retrieves a transaction by its external id
func (h *TransactionHandler) GetByID(c *gin.Context) {
	txn, err := h.statementService.GetTransaction(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		respondWithError(c, logger.FromContext(c.Request.Context(), h.logger), err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// bind decodes the body into req and reads the Idempotency-Key header. On failure the
// 400 response is already written.
func (h *TransactionHandler) bind(c *gin.Context, req any) (string, bool) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	if err := c.ShouldBindJSON(req); err != nil {
		log.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return "", false
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		RespondBadRequest(c, "Idempotency-Key must not exceed 128 characters")
		return "", false
	}
	return key, true
}

func (h *TransactionHandler) respond(c *gin.Context, res *engine.Result, err error) {
	if err != nil {
		respondWithError(c, logger.FromContext(c.Request.Context(), h.logger), err)
		return
	}
	if res.Replayed {
		RespondReplayed(c, mapResultToResponse(res))
		return
	}
	RespondCreated(c, mapResultToResponse(res))
}
