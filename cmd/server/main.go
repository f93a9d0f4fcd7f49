package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"deskmatch/internal/adapters/emailsource"
	httpadapter "deskmatch/internal/adapters/http"
	pg "deskmatch/internal/adapters/postgres"
	"deskmatch/internal/config"
	"deskmatch/internal/ports"
	impsvc "deskmatch/internal/services/importer"
	"deskmatch/internal/services/matching"
	recsvc "deskmatch/internal/services/reconcile"
	repsvc "deskmatch/internal/services/reports"
	"deskmatch/internal/workers/extractrunner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("warning: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for Postgres adapters")
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Wire repositories to services (ports)
	var _ ports.ReferenceStore = db
	var _ ports.TicketRepository = db

	engine := matching.New(db)
	reconciler := recsvc.New(engine, db, logger)
	imports := impsvc.New(db, db, logger)
	reports := repsvc.New(db, db)

	srv := httpadapter.New(imports, reconciler, reports, db, logger)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	// Optional background extraction worker
	if cfg.ExtractWorker {
		var fetcher ports.EmailFetcher = emailsource.Noop{}
		if cfg.EmailSourceURL != "" {
			fetcher = emailsource.New(cfg.EmailSourceURL)
		}
		runner := extractrunner.New(db, fetcher, reconciler, logger)
		go runner.Run(ctx, time.Duration(cfg.ExtractPollMS)*time.Millisecond)
		logger.Info("extraction worker started", zap.String("source", cfg.EmailSourceURL))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	logger.Info("listening", zap.String("addr", cfg.ListenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		logger.Fatal("server error", zap.Error(fmt.Errorf("listen: %w", err)))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
