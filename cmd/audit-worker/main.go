// Command audit-worker consumes audit events from AMQP and writes them
// into the audit_log table.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/SadLabib/Spendit/internal/amqp"
	"github.com/SadLabib/Spendit/internal/config"
	"github.com/SadLabib/Spendit/internal/log"
	"github.com/SadLabib/Spendit/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Audit worker started",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		log.FieldOperation, log.OpStartup)

	err = client.ConsumeAudit(ctx, func(msg *amqp.AuditMessage) error {
		if err := repo.InsertAuditLog(ctx, msg.UserID, msg.Action, msg.Timestamp); err != nil {
			logger.Error("Failed to record audit event",
				log.FieldError, err,
				log.FieldUserID, msg.UserID,
				log.FieldAction, msg.Action)
			return err
		}
		logger.Info("Audit event recorded",
			log.FieldUserID, msg.UserID,
			log.FieldAction, msg.Action)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Audit worker stopped", log.FieldOperation, log.OpShutdown)
}
