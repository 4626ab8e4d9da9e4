package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/jamiyah-app/jamiyah/internal/app"
	"github.com/jamiyah-app/jamiyah/internal/auth"
	"github.com/jamiyah-app/jamiyah/internal/members"
	"github.com/jamiyah-app/jamiyah/internal/platform/db"
	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/territory"
	"github.com/jamiyah-app/jamiyah/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var store rbac.Store
	switch cfg.AuthzStore {
	case "file":
		memStore, err := rbac.OpenMemoryStore(cfg.AuthzDataPath)
		if err != nil {
			logger.Error("open authz data file", slog.Any("error", err))
			os.Exit(1)
		}
		store = memStore
	default:
		store = rbac.NewRepository(pool)
	}

	territoryDir := territory.NewRepository(pool)
	resolver := rbac.NewResolver(store)
	engine := rbac.NewEngine(store, territoryDir, resolver, logger)

	membersRepo := members.NewRepository(pool)
	membersService := members.NewService(engine, membersRepo, store, territoryDir, logger)

	authService := auth.NewService(auth.NewRepository(pool))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker := jobs.NewWorker(redisOpts, logger)
	worker.Handle(jobs.TaskMemberExport, jobs.NewMemberExportHandler(membersService, cfg.ExportDir, logger))
	worker.Handle(jobs.TaskSessionSweep, jobs.NewSessionSweepHandler(authService, logger))
	if err := worker.Cron("45 2 * * *", jobs.NewSessionSweepTask(), asynq.MaxRetry(3)); err != nil {
		logger.Error("register cron", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer inspector.Close()
	router := chi.NewRouter()
	router.Route("/jobs", jobs.NewHandler(inspector, logger).MountRoutes)
	healthSrv := &http.Server{Addr: cfg.WorkerAddr, Handler: router}
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthSrv.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
