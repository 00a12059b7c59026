package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mangapost/app/auth"
	"mangapost/app/notifier"
	"mangapost/app/repositories"
	"mangapost/app/repositories/mock"
	"mangapost/app/repositories/postgres"
	"mangapost/app/routes"
	"mangapost/app/services"
	"mangapost/app/store"
	"mangapost/app/views"
	"mangapost/config"
)

const shutdownTimeout = 10 * time.Second

// backends groups the storage picked by STORAGE_TYPE.
type backends struct {
	posts  repositories.PostRepository
	kv     store.Store
	closer func()
}

func openBackends(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*backends, error) {
	switch cfg.Type {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; posts and sessions are lost on restart")
		return &backends{
			posts:  mock.NewPostRepository(),
			kv:     store.NewMemoryStore(),
			closer: func() {},
		}, nil

	case config.StoragePostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresConnectAttempts, logger)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewPostRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		// Admin password and sessions stay in badger.
		db, err := openBadger(cfg.BadgerPath, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Storage ready", "posts", "postgres", "sessions", cfg.BadgerPath)
		return &backends{
			posts: repo,
			kv:    store.NewBadgerStore(db),
			closer: func() {
				pool.Close()
				if err := db.Close(); err != nil {
					logger.Warn("Failed to close badger", "error", err)
				}
			},
		}, nil

	default:
		db, err := openBadger(cfg.BadgerPath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage ready", "posts", "badger", "path", cfg.BadgerPath)
		return &backends{
			posts: repositories.NewBadgerPostRepository(db),
			kv:    store.NewBadgerStore(db),
			closer: func() {
				if err := db.Close(); err != nil {
					logger.Warn("Failed to close badger", "error", err)
				}
			},
		}, nil
	}
}

func newNotifier(cfg config.NotifierConfig, logger *slog.Logger) (notifier.Notifier, error) {
	if cfg.Type == config.NotifierTelegram {
		logger.Info("Publishing to Telegram", "channel", cfg.ChannelID)
		return notifier.NewTelegramProvider(notifier.TelegramConfig{
			APIURL:     cfg.APIURL,
			Token:      cfg.BotToken,
			ChannelID:  cfg.ChannelID,
			ButtonText: cfg.ButtonText,
			Timeout:    cfg.Timeout,
		}, logger)
	}
	logger.Info("Mock Telegram mode enabled (no TELEGRAM_BOT_TOKEN)", "channel", cfg.ChannelID)
	return notifier.NewLogProvider(cfg.ChannelID, logger), nil
}

// newHandler builds the HTTP handler from configuration and opened backends.
func newHandler(cfg *config.Config, b *backends, logger *slog.Logger) (http.Handler, error) {
	templates, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	if cfg.Auth.SessionSecretGenerated {
		logger.Warn("SESSION_SECRET not set; using a random key, sessions end on restart")
	}
	if cfg.Auth.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set; POST /admin/save rejects every request")
	}

	guard := auth.NewGuard(b.kv, cfg.Auth.SessionSecret, logger, auth.WithTTL(cfg.Auth.SessionTTL))
	n, err := newNotifier(cfg.Notifier, logger)
	if err != nil {
		return nil, err
	}
	publisher := services.NewPublishService(b.posts, n, logger)

	return routes.SetupRoutes(routes.Deps{
		Publisher:     publisher,
		Guard:         guard,
		Templates:     templates,
		Logger:        logger,
		AdminPassword: cfg.Auth.AdminPassword,
		ChannelURL:    notifier.ChannelURL(cfg.Notifier.ChannelID),
		CookieSecure:  cfg.Auth.CookieSecure,
	}), nil
}

// RunAppServer serves the dashboard until ctx is canceled, then shuts down gracefully.
func RunAppServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	b, err := openBackends(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer b.closer()

	handler, err := newHandler(cfg, b, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting mangapost server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
