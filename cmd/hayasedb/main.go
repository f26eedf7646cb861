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

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/HayaseDB/hayasedb-sub000/internal/animes"
	"github.com/HayaseDB/hayasedb-sub000/internal/app"
	"github.com/HayaseDB/hayasedb-sub000/internal/auth"
	"github.com/HayaseDB/hayasedb-sub000/internal/contrib"
	"github.com/HayaseDB/hayasedb-sub000/internal/genres"
	"github.com/HayaseDB/hayasedb-sub000/internal/rbac"
	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
	"github.com/HayaseDB/hayasedb-sub000/internal/users"
	"github.com/HayaseDB/hayasedb-sub000/jobs"
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

	// A permission config that does not compile is a deployment error;
	// refuse to start.
	engine, err := rbac.Compile(rbac.DefaultConfig())
	if err != nil {
		logger.Error("compile permission config", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "hayase_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	reg := registry.Default()
	rbacMiddleware := rbac.Middleware{Engine: engine, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	genresRepo := genres.NewRepository(dbpool)
	genresService := genres.NewService(genresRepo)
	genresHandler := genres.NewHandler(logger, genresService, rbacMiddleware)

	animesRepo := animes.NewRepository(dbpool)
	animesService := animes.NewService(animesRepo)
	animesHandler := animes.NewHandler(logger, animesService, rbacMiddleware)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, logger)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)

	contribRepo := contrib.NewRepository(dbpool)
	workspace := contrib.NewWorkspace(dbpool, reg)
	contribService := contrib.NewService(contribRepo, workspace, reg, engine, jobClient, auditLogger, logger)
	contribHandler := contrib.NewHandler(logger, contribService, reg, rbacMiddleware)

	permissionsHandler := rbac.NewPermissionsHandler(engine, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		AnimesHandler:      animesHandler,
		GenresHandler:      genresHandler,
		UsersHandler:       usersHandler,
		ContribHandler:     contribHandler,
		PermissionsHandler: permissionsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
