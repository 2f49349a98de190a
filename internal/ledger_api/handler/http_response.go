package handler

import (
	"net/http"

	"github.com/finance-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo carries paging for history listings and the replay marker for idempotent writes
type MetaInfo struct {
	Page       int  `json:"page,omitempty"`
	PerPage    int  `json:"per_page,omitempty"`
	TotalPages int  `json:"total_pages,omitempty"`
	TotalItems int  `json:"total_items,omitempty"`
	Replayed   bool `json:"replayed,omitempty"`
}

func write(c *gin.Context, status int, resp Response) {
	resp.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, resp)
}

// RespondWithError sends an error envelope with a machine readable code
func RespondWithError(c *gin.Context, status int, code, message string) {
	write(c, status, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

// RespondPage sends one page of a listing along with its position in the whole set
func RespondPage(c *gin.Context, data interface{}, page, perPage int, total int64) {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	write(c, http.StatusOK, Response{
		Data: data,
		Meta: &MetaInfo{Page: page, PerPage: perPage, TotalPages: pages, TotalItems: int(total)},
	})
}

// RespondReplayed sends the stored outcome of an idempotent request with 200 OK
func RespondReplayed(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Response{Data: data, Meta: &MetaInfo{Replayed: true}})
}

func RespondOK(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Response{Data: data})
}

func RespondCreated(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Response{Data: data})
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func RespondNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondUnprocessable reports a ledger rule violation such as INSUFFICIENT_FUNDS
func RespondUnprocessable(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusUnprocessableEntity, code, message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}
