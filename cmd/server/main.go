package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobtracker/internal/auth"
	"jobtracker/internal/config"
	"jobtracker/internal/handlers"
	"jobtracker/internal/repository"
	"jobtracker/internal/services"
	"jobtracker/internal/storage"

	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 3. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 4. Run Migrations
	if err := repository.Migrate(db, cfg, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 5. Document storage
	store, err := storage.NewLocalStore(cfg.UploadFolder)
	if err != nil {
		return fmt.Errorf("failed to initialize upload folder: %w", err)
	}

	// 6. Identity provider
	discoveryCtx, discoveryCancel := context.WithTimeout(ctx, 10*time.Second)
	provider := auth.NewOAuthProvider(discoveryCtx, auth.Options{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		DiscoveryURL: cfg.OAuthDiscoveryURL,
	}, logger)
	discoveryCancel()

	// 7. Initialize Services
	applicationService := services.NewApplicationService(db, store, logger)
	documentService := services.NewDocumentService(db, store, logger)
	userService := services.NewUserService(db, logger)
	rateLimiter := services.NewIPRateLimiter(5, 10, logger)

	// 8. Initialize Handler
	h := handlers.NewHandler(cfg, logger, applicationService, documentService, userService, provider)

	// 9. Setup Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sessionStore, err := newSessionStore(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	r := h.SetupRouter(rateLimiter, sessionStore)

	// 10. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	rateLimiter.StartCleanup(workerCtx, 10*time.Minute)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	workerCancel()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server exiting")
	return nil
}

// newSessionStore returns nil for the cookie store, which the router builds
// itself, or a store backed by the sessions table.
func newSessionStore(cfg config.Config, db *gorm.DB) (sessions.Store, error) {
	switch cfg.SessionStore {
	case "", config.SessionStoreCookie:
		return nil, nil
	case config.SessionStoreDatabase:
		return gormsessions.NewStore(db, true, []byte(cfg.SecretKey)), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}
