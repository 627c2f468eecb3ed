package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/SadLabib/Spendit/internal/amqp"
	"github.com/SadLabib/Spendit/internal/config"
	"github.com/SadLabib/Spendit/internal/export"
	apphttp "github.com/SadLabib/Spendit/internal/http"
	"github.com/SadLabib/Spendit/internal/log"
	"github.com/SadLabib/Spendit/internal/pdf"
	"github.com/SadLabib/Spendit/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional; without a URL audit events only go to the log.
	var audit export.AuditPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		audit = client
		logger.Info("AMQP audit publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP audit publishing disabled - no AMQP_URL provided")
	}

	engine, err := pdf.NewEngine(pdf.Config{
		BrowserPath: cfg.PDFBrowserPath,
		Timeout:     cfg.PDFRenderTimeout,
	}, logger)
	if err != nil {
		logger.Error("Failed to start PDF render engine", log.FieldError, err)
		os.Exit(1)
	}
	defer engine.Close()

	exporter := export.NewService(
		export.NewAggregator(repo, audit, logger),
		export.NewRenderer(engine),
	)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:            ":" + cfg.Port,
		SecureCookie:    cfg.SecureCookie,
		SessionDuration: cfg.SessionDuration,
	}, repo, exporter, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second // PDF renders can take a while
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting spendit server",
			"port", cfg.Port,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n, err := repo.CleanExpiredSessions(ctx); err != nil {
					logger.Warn("Session cleanup failed", log.FieldError, err)
				} else if n > 0 {
					logger.Info("Expired sessions removed", "count", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
