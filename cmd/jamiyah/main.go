package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jamiyah-app/jamiyah/internal/app"
	"github.com/jamiyah-app/jamiyah/internal/auth"
	"github.com/jamiyah-app/jamiyah/internal/members"
	"github.com/jamiyah-app/jamiyah/internal/nasyath"
	"github.com/jamiyah-app/jamiyah/internal/platform/cache"
	"github.com/jamiyah-app/jamiyah/internal/platform/db"
	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/roles"
	"github.com/jamiyah-app/jamiyah/internal/shared"
	"github.com/jamiyah-app/jamiyah/internal/territory"
	"github.com/jamiyah-app/jamiyah/internal/users"
	"github.com/jamiyah-app/jamiyah/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "jamiyah_session", cfg.SessionTTL, cfg.IsProduction())

	// The authorization store is swappable: postgres for deployments, a
	// JSON snapshot for small installs and local runs. Everything behind
	// the Store interface behaves the same either way.
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
	authz := rbac.Middleware{Engine: engine, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	rolesService := roles.NewService(engine, store, resolver, logger)
	rolesHandler := roles.NewHandler(logger, rolesService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(engine, usersRepo, store, logger)
	usersHandler := users.NewHandler(logger, usersService)

	membersRepo := members.NewRepository(pool)
	membersService := members.NewService(engine, membersRepo, store, territoryDir, logger)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	membersHandler := members.NewHandler(logger, membersService, jobClient)

	nasyathRepo := nasyath.NewRepository(pool)
	nasyathService := nasyath.NewService(engine, nasyathRepo, store, logger)
	nasyathHandler := nasyath.NewHandler(logger, nasyathService)

	territoryHandler := territory.NewHandler(logger, territoryDir)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		RolesHandler:     rolesHandler,
		UsersHandler:     usersHandler,
		MembersHandler:   membersHandler,
		NasyathHandler:   nasyathHandler,
		TerritoryHandler: territoryHandler,
		Authz:            authz,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
