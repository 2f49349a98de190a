package handler

import (
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/finance-ledger/internal/logger"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles HTTP requests for account administration and account-scoped queries
type AccountHandler struct {
	accountService   service.AccountService
	statementService service.StatementService
	logger           *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService, statementService service.StatementService) *AccountHandler {
	return &AccountHandler{
		accountService:   accountService,
		statementService: statementService,
		logger:           logger,
	}
}

// Create opens a new account
func (h *AccountHandler) Create(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input := service.OpenAccountInput{
		Type:       account.Type(req.Type),
		ClientID:   req.ClientID,
		MerchantID: req.MerchantID,
	}
	if req.InitialDeposit != "" {
		// Already checked by the money rule
		input.InitialDeposit = money.MustParse(req.InitialDeposit)
	}
	if req.AvailableLimit != "" {
		limit := money.MustParse(req.AvailableLimit)
		input.AvailableLimit = &limit
	}

	acc, err := h.accountService.Open(c.Request.Context(), input)
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// Get retrieves an account by its account number
func (h *AccountHandler) Get(c *gin.Context) {
	acc, err := h.accountService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondWithError(c, logger.FromContext(c.Request.Context(), h.logger), err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ListByOwner lists the accounts held by one client or merchant
func (h *AccountHandler) ListByOwner(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var query OwnerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		log.Warn("Invalid owner query", "error", err)
		RespondBadRequest(c, "Invalid owner query: "+err.Error())
		return
	}

	accounts, err := h.accountService.ListByOwner(c.Request.Context(), account.OwnerKind(query.OwnerKind), query.OwnerID)
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}
	RespondOK(c, responses)
}

// ChangeStatus sets the administrative status of an account
func (h *AccountHandler) ChangeStatus(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.ChangeStatus(c.Request.Context(), c.Param("number"), account.Status(req.Status))
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ListTransactions retrieves paginated transaction history for an account, newest first
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		log.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	txns, total, err := h.statementService.ListAccountTransactions(
		c.Request.Context(),
		c.Param("number"),
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	RespondPage(c, mapTransactionsToResponse(txns), pagination.Page, pagination.PerPage, total)
}

// Statement returns the account's balance and every record created within [from, to]
func (h *AccountHandler) Statement(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var query StatementQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		log.Warn("Invalid statement query", "error", err)
		RespondBadRequest(c, "from and to must be RFC3339 timestamps")
		return
	}

	stmt, err := h.statementService.GenerateStatement(c.Request.Context(), c.Param("number"), query.From, query.To)
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	RespondOK(c, StatementResponse{
		AccountNumber:  stmt.AccountNumber,
		AccountType:    string(stmt.AccountType),
		CurrentBalance: stmt.CurrentBalance.String(),
		StartDate:      stmt.StartDate.Format(time.RFC3339),
		EndDate:        stmt.EndDate.Format(time.RFC3339),
		GeneratedAt:    stmt.GeneratedAt.Format(time.RFC3339),
		Transactions:   mapTransactionsToResponse(stmt.Transactions),
	})
}

// Activity returns a page of the projected activity feed
func (h *AccountHandler) Activity(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		log.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.statementService.ListActivity(
		c.Request.Context(),
		c.Param("number"),
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	RespondPage(c, entries, pagination.Page, pagination.PerPage, total)
}
