// Command statement_projector consumes terminal transaction events and maintains the
// per-account activity feed in MongoDB.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finance-ledger/internal/config"
	"github.com/finance-ledger/internal/data/mongo"
	"github.com/finance-ledger/internal/logger"
	"github.com/finance-ledger/internal/platform/messaging/consumers"
	"github.com/finance-ledger/internal/platform/messaging/producers"
	"github.com/finance-ledger/internal/platform/persistence"
	"github.com/finance-ledger/internal/statement_projector"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig("statement_projector")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Statement projector stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Statement projector stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info("Starting statement projector",
		"topic", cfg.Kafka.EventTopic,
		"group", cfg.Kafka.ConsumerGroup,
		"dlq_topic", cfg.Kafka.DLQTopic,
	)

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	statementRepo := mongo.NewStatementRepository(log, mongoDB.Database())
	if err := statementRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure activity indexes: %w", err)
	}

	dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return err
	}
	// assigned only when configured so the handler sees a nil interface, not a typed nil
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
		defer func() {
			if err := dlqProducer.Close(); err != nil {
				log.Error("Error closing DLQ producer", "error", err)
			}
		}()
	}

	consumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)
	handler := statement_projector.NewTransactionEventHandler(
		log,
		statement_projector.NewStatementProjector(statementRepo, log),
		deadLetters,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := consumer.Run(gctx, handler.HandleMessage); err != nil {
			return fmt.Errorf("kafka consumer error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down statement projector")
		return consumer.Close()
	})

	return g.Wait()
}
