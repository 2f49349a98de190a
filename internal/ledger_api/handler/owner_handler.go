package handler

import (
	"log/slog"
	"net/http"

	"github.com/finance-ledger/internal/domain/owner"
	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/finance-ledger/internal/logger"
	"github.com/gin-gonic/gin"
)

// OwnerHandler handles the client and merchant registry
type OwnerHandler struct {
	ownerService service.OwnerService
	logger       *slog.Logger
}

func NewOwnerHandler(logger *slog.Logger, ownerService service.OwnerService) *OwnerHandler {
	return &OwnerHandler{
		ownerService: ownerService,
		logger:       logger,
	}
}

// CreateClient registers a client
func (h *OwnerHandler) CreateClient(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	client, err := h.ownerService.CreateClient(c.Request.Context(), req.details())
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	RespondCreated(c, client)
}

func (h *OwnerHandler) GetClient(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	client, err := h.ownerService.GetClient(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, logger.FromContext(c.Request.Context(), h.logger), err)
		return
	}

	RespondOK(c, client)
}

func (h *OwnerHandler) ListClients(c *gin.Context) {
	clients, err := h.ownerService.ListClients(c.Request.Context())
	if err != nil {
		respondWithError(c, logger.FromContext(c.Request.Context(), h.logger), err)
		return
	}

	RespondOK(c, clients)
}

// UpdateClient replaces the client's details
func (h *OwnerHandler) UpdateClient(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	client, err := h.ownerService.UpdateClient(c.Request.Context(), id, req.details())
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	RespondOK(c, client)
}

// DeleteClient removes a client that holds no accounts
func (h *OwnerHandler) DeleteClient(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.ownerService.DeleteClient(c.Request.Context(), id); err != nil {
		respondWithError(c, logger.FromContext(c.Request.Context(), h.logger), err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateMerchant registers a merchant
func (h *OwnerHandler) CreateMerchant(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var req MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	merchant, err := h.ownerService.CreateMerchant(c.Request.Context(), owner.MerchantDetails{
		BusinessName:         req.BusinessName,
		TradingName:          req.TradingName,
		Email:                req.Email,
		NIF:                  req.NIF,
		Phone:                req.Phone,
		Address:              req.Address,
		MerchantCategoryCode: req.MerchantCategoryCode,
	})
	if err != nil {
		respondWithError(c, log, err)
		return
	}

	RespondCreated(c, merchant)
}

func (h *OwnerHandler) GetMerchant(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	merchant, err := h.ownerService.GetMerchant(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, logger.FromContext(c.Request.Context(), h.logger), err)
		return
	}

	RespondOK(c, merchant)
}

func (h *OwnerHandler) ListMerchants(c *gin.Context) {
	merchants, err := h.ownerService.ListMerchants(c.Request.Context())
	if err != nil {
		respondWithError(c, logger.FromContext(c.Request.Context(), h.logger), err)
		return
	}

	RespondOK(c, merchants)
}

// bindID writes the 400 itself when the path id is not a positive integer
func (h *OwnerHandler) bindID(c *gin.Context) (int64, bool) {
	var uri OwnerURI
	if err := c.ShouldBindUri(&uri); err != nil {
		logger.FromContext(c.Request.Context(), h.logger).Warn("Invalid owner id", "id", c.Param("id"), "error", err)
		RespondBadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return uri.ID, true
}

func (r ClientRequest) details() owner.ClientDetails {
	return owner.ClientDetails{
		Name:           r.Name,
		Email:          r.Email,
		DocumentNumber: r.DocumentNumber,
		Phone:          r.Phone,
		Address:        r.Address,
	}
}
