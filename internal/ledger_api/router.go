package ledger_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/finance-ledger/internal/ledger_api/handler"
	"github.com/finance-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
)

// routes holds everything mounted on the engine. metrics is nil when exposition is off.
type routes struct {
	accounts     *handler.AccountHandler
	transactions *handler.TransactionHandler
	owners       *handler.OwnerHandler
	metricsPath  string
	metrics      http.Handler
}

func (rt routes) mount(engine *gin.Engine, log *slog.Logger) {
	engine.Use(
		middleware.Recovery(log),
		middleware.CorrelationID(),
		middleware.Logger(log),
	)

	api := engine.Group("/api/v1")
	rt.mountAccounts(api.Group("/accounts"))
	rt.mountTransactions(api.Group("/transactions"))
	rt.mountOwners(api)

	engine.GET("/health", health)
	if rt.metrics != nil {
		engine.GET(rt.metricsPath, gin.WrapH(rt.metrics))
	}
}

func (rt routes) mountAccounts(g *gin.RouterGroup) {
	g.POST("", rt.accounts.Create)
	g.GET("", rt.accounts.ListByOwner)

	one := g.Group("/:number")
	one.GET("", rt.accounts.Get)
	one.PATCH("/status", rt.accounts.ChangeStatus)
	one.GET("/transactions", rt.accounts.ListTransactions)
	one.GET("/statement", rt.accounts.Statement)
	one.GET("/activity", rt.accounts.Activity)
}

// Money movement is POST-only; reads go through the record id
func (rt routes) mountTransactions(g *gin.RouterGroup) {
	g.POST("/deposits", rt.transactions.Deposit)
	g.POST("/withdrawals", rt.transactions.Withdraw)
	g.POST("/transfers", rt.transactions.Transfer)
	g.GET("/:transaction_id", rt.transactions.GetByID)
}

// Merchants are only registered and read; clients can also be edited and removed
func (rt routes) mountOwners(api *gin.RouterGroup) {
	clients := api.Group("/clients")
	clients.POST("", rt.owners.CreateClient)
	clients.GET("", rt.owners.ListClients)
	clients.GET("/:id", rt.owners.GetClient)
	clients.PUT("/:id", rt.owners.UpdateClient)
	clients.DELETE("/:id", rt.owners.DeleteClient)

	merchants := api.Group("/merchants")
	merchants.POST("", rt.owners.CreateMerchant)
	merchants.GET("", rt.owners.ListMerchants)
	merchants.GET("/:id", rt.owners.GetMerchant)
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checked_at": time.Now().UTC()})
}
