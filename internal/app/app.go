package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"commoni-api/internal/cache"
	"commoni-api/internal/config"
	"commoni-api/internal/database"
	"commoni-api/internal/handler"
	"commoni-api/internal/middleware"
	"commoni-api/internal/password"
	"commoni-api/internal/repository"
	"commoni-api/internal/router"
	"commoni-api/internal/service"
	"commoni-api/internal/token"
)

const startupPingTimeout = 3 * time.Second

type App struct {
	server          *http.Server
	shutdownTimeout time.Duration
	cleanupFuncs    []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	signer, err := token.NewJWTSigner(cfg.AuthSecretKey, cfg.AuthAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	codec, err := token.NewCodec(token.Config{AccessTTL: cfg.AccessTTL(), RefreshTTL: cfg.RefreshTTL()}, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, database.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("database ready")

	kv := cache.New(cache.Options{Host: cfg.RedisHost, Port: cfg.RedisPort, DB: cfg.RedisDB, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	if err := kv.Health(pingCtx); err != nil {
		slog.Warn("cache unavailable at startup", "error", err)
	}
	cancel()

	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	userService := service.NewUserService(repository.NewUserRepository(db.Pool), hasher)
	userService.SetPresenceCache(kv, cfg.UserCacheTTL)

	authService, err := service.NewAuthService(codec, userService, hasher, cfg.RenewWindow())
	if err != nil {
		db.Close()
		_ = kv.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{"postgres": db, "cache": kv}),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		cleanupFuncs: []func(){
			func() {
				if err := kv.Close(); err != nil {
					slog.Warn("cache close failed", "error", err)
				}
			},
			db.Close,
		},
	}, nil
}

// Handler exposes the routed handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Close releases the database pool and the cache client.
func (a *App) Close() {
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}

// Run serves until SIGINT/SIGTERM or a listener failure, then shuts down.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		a.Close()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	// Drain in-flight requests before closing what they depend on.
	shutdownErr := a.server.Shutdown(shutdownCtx)
	a.Close()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
