package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adapthttp "trainingdiary/internal/adapter/http"
	"trainingdiary/internal/adapter/memory"
	"trainingdiary/internal/adapter/postgres"
	"trainingdiary/internal/adapter/sqlite"
	"trainingdiary/internal/app"
	"trainingdiary/internal/config"
	"trainingdiary/internal/domain"
	"trainingdiary/internal/drawing"
	"trainingdiary/internal/logging"

	"go.uber.org/zap"
)

type store interface {
	domain.EntryRepository
	domain.SessionRepository
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("config", zap.Error(err))
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	db, err := openStore(cfg)
	if err != nil {
		log.Fatal("db open", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	loader := drawing.NewLoader(log.Named("background"),
		drawing.WithFetchTimeout(cfg.BackgroundTimeout),
		drawing.WithMaxWidth(cfg.CanvasMaxWidth),
	)
	canvasSvc := app.NewCanvasService(loader, cfg.BackgroundSource)
	entrySvc := app.NewEntryService(db, canvasSvc, log.Named("entries"))

	var authSvc *app.AuthService
	if cfg.OwnerPassword != "" {
		authSvc, err = app.NewAuthService(db, cfg.OwnerPassword)
		if err != nil {
			log.Fatal("auth setup", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if authSvc != nil {
		go pruneSessions(ctx, authSvc, log)
	}

	// Warm the background so the first page load does not wait on a fetch.
	info := canvasSvc.Canvas(ctx)
	log.Info("canvas ready",
		zap.String("source", cfg.BackgroundSource),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Bool("background", info.HasBackground),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           adapthttp.New(entrySvc, canvasSvc, authSvc, cfg.WebDir, log.Named("http")).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store), zap.Bool("auth", authSvc != nil))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", zap.Error(err))
	}
}

func openStore(cfg *config.Config) (store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		return postgres.Open(cfg.DatabaseURL)
	case config.StoreMemory:
		return memory.New(), nil
	default:
		return sqlite.Open(cfg.SQLitePath)
	}
}

func pruneSessions(ctx context.Context, auth *app.AuthService, log *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := auth.PruneSessions(ctx); err != nil {
				log.Warn("prune sessions", zap.Error(err))
			}
		}
	}
}
