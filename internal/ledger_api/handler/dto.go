package handler

import (
	"time"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the ledger's binding rules to gin's validator:
// "money" accepts a decimal string with at most two fractional digits and
// "account_number" accepts exactly ten digits.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("money", validateMoney); err != nil {
		return err
	}
	return v.RegisterValidation("account_number", validateAccountNumber)
}

func validateMoney(fl validator.FieldLevel) bool {
	_, err := money.Parse(fl.Field().String())
	return err == nil
}

func validateAccountNumber(fl validator.FieldLevel) bool {
	return account.ValidateAccountNumber(fl.Field().String()) == nil
}

// CreateAccountRequest represents a request to open a new account
type CreateAccountRequest struct {
	Type           string `json:"type" binding:"required,oneof=CHECKING SAVINGS BUSINESS INVESTMENT"`
	ClientID       *int64 `json:"client_id" binding:"omitempty,gt=0"`
	MerchantID     *int64 `json:"merchant_id" binding:"omitempty,gt=0"`
	InitialDeposit string `json:"initial_deposit" binding:"omitempty,money"`
	AvailableLimit string `json:"available_limit" binding:"omitempty,money"`
}

// ChangeStatusRequest represents a request to change an account's status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE BLOCKED CLOSED"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	AccountNumber  string `json:"account_number"`
	Type           string `json:"type"`
	Balance        string `json:"balance"`
	AvailableLimit string `json:"available_limit,omitempty"`
	Status         string `json:"status"`
	ClientID       *int64 `json:"client_id,omitempty"`
	MerchantID     *int64 `json:"merchant_id,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// OwnerQuery selects the accounts of one client or merchant
type OwnerQuery struct {
	OwnerKind string `form:"owner_kind" binding:"required,oneof=CLIENT MERCHANT"`
	OwnerID   int64  `form:"owner_id" binding:"required,gt=0"`
}

// ClientRequest registers or replaces a client
type ClientRequest struct {
	Name           string `json:"name" binding:"required,min=3,max=100"`
	Email          string `json:"email" binding:"required,email,max=255"`
	DocumentNumber string `json:"document_number" binding:"required,max=50"`
	Phone          string `json:"phone" binding:"required,max=30"`
	Address        string `json:"address" binding:"max=255"`
}

// MerchantRequest registers a merchant
type MerchantRequest struct {
	BusinessName         string `json:"business_name" binding:"required,min=3,max=100"`
	TradingName          string `json:"trading_name" binding:"max=100"`
	Email                string `json:"email" binding:"required,email,max=255"`
	NIF                  string `json:"nif" binding:"required,max=20"`
	Phone                string `json:"phone" binding:"required,max=30"`
	Address              string `json:"address" binding:"max=255"`
	MerchantCategoryCode string `json:"merchant_category_code" binding:"omitempty,len=4,numeric"`
}

// OwnerURI is the id path segment of the registry routes
type OwnerURI struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

// DepositRequest represents a request to credit an account
type DepositRequest struct {
	AccountNumber string `json:"account_number" binding:"required,account_number"`
	Amount        string `json:"amount" binding:"required,money"`
	Description   string `json:"description" binding:"max=255"`
}

// WithdrawRequest represents a request to debit an account
type WithdrawRequest struct {
	AccountNumber string `json:"account_number" binding:"required,account_number"`
	Amount        string `json:"amount" binding:"required,money"`
	Description   string `json:"description" binding:"max=255"`
}

// TransferRequest represents a request to move funds between two accounts
type TransferRequest struct {
	SourceAccountNumber      string `json:"source_account_number" binding:"required,account_number"`
	DestinationAccountNumber string `json:"destination_account_number" binding:"required,account_number"`
	Amount                   string `json:"amount" binding:"required,money"`
	Description              string `json:"description" binding:"max=255"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	TransactionID            string `json:"transaction_id"`
	Type                     string `json:"type"`
	Amount                   string `json:"amount"`
	Status                   string `json:"status"`
	Description              string `json:"description,omitempty"`
	SourceAccountNumber      string `json:"source_account_number,omitempty"`
	DestinationAccountNumber string `json:"destination_account_number,omitempty"`
	FailureReason            string `json:"failure_reason,omitempty"`
	CreatedAt                string `json:"created_at"`
	ProcessedAt              string `json:"processed_at,omitempty"`
}

// StatementResponse represents an account statement over a date range
type StatementResponse struct {
	AccountNumber  string                `json:"account_number"`
	AccountType    string                `json:"account_type"`
	CurrentBalance string                `json:"current_balance"`
	StartDate      string                `json:"start_date"`
	EndDate        string                `json:"end_date"`
	GeneratedAt    string                `json:"generated_at"`
	Transactions   []TransactionResponse `json:"transactions"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1,max=10000000"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// StatementQuery bounds a statement. Both ends are RFC3339 timestamps.
type StatementQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00" binding:"required"`
	To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00" binding:"required"`
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	response := AccountResponse{
		AccountNumber: acc.AccountNumber,
		Type:          string(acc.Type),
		Balance:       acc.Balance.String(),
		Status:        string(acc.Status),
		ClientID:      acc.ClientID,
		MerchantID:    acc.MerchantID,
		CreatedAt:     acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.AvailableLimit != nil {
		response.AvailableLimit = acc.AvailableLimit.String()
	}
	return response
}

func mapResultToResponse(res *engine.Result) TransactionResponse {
	response := TransactionResponse{
		TransactionID:            res.TransactionID,
		Type:                     string(res.Type),
		Amount:                   res.Amount.String(),
		Status:                   string(res.Status),
		Description:              res.Description,
		SourceAccountNumber:      res.SourceAccountNumber,
		DestinationAccountNumber: res.DestinationAccountNumber,
		CreatedAt:                res.CreatedAt.Format(time.RFC3339),
	}
	if res.ProcessedAt != nil {
		response.ProcessedAt = res.ProcessedAt.Format(time.RFC3339)
	}
	return response
}

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		TransactionID:            txn.TransactionID,
		Type:                     string(txn.Type),
		Amount:                   txn.Amount.String(),
		Status:                   string(txn.Status),
		Description:              txn.Description,
		SourceAccountNumber:      txn.SourceAccountNumber,
		DestinationAccountNumber: txn.DestinationAccountNumber,
		FailureReason:            txn.FailureReason,
		CreatedAt:                txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.ProcessedAt != nil {
		response.ProcessedAt = txn.ProcessedAt.Format(time.RFC3339)
	}
	return response
}

func mapTransactionsToResponse(txns []*transaction.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn))
	}
	return responses
}
