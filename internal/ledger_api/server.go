// Package ledger_api serves the ledger over HTTP.
package ledger_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/finance-ledger/internal/config"
	"github.com/finance-ledger/internal/ledger_api/handler"
	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the handlers call into
type Services struct {
	Accounts     service.AccountService
	Transactions service.TransactionService
	Statements   service.StatementService
	Owners       service.OwnerService
}

// Server owns the HTTP listener for the ledger API
type Server struct {
	log    *slog.Logger
	http   *http.Server
	engine *gin.Engine
}

// NewServer creates and configures a new HTTP server. gatherer backs /metrics and is
// ignored unless metrics are enabled.
func NewServer(log *slog.Logger, cfg *config.Config, services Services, gatherer prometheus.Gatherer) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register request validators: %w", err)
	}

	rt := routes{
		accounts:     handler.NewAccountHandler(log, services.Accounts, services.Statements),
		transactions: handler.NewTransactionHandler(log, services.Transactions, services.Statements),
		owners:       handler.NewOwnerHandler(log, services.Owners),
		metricsPath:  cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled && gatherer != nil {
		rt.metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}

	engine := gin.New()
	rt.mount(engine, log)

	return &Server{
		log:    log,
		engine: engine,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving requests. A graceful Stop is not reported as an error.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("HTTP server draining")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to drain HTTP server: %w", err)
	}
	return nil
}
