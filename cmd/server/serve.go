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

	"github.com/gorilla/sessions"
	"github.com/spf13/cobra"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/config"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/database"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/handler"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/middleware"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/securekeys"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/repository"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// stores holds the repositories for the configured driver plus what /ready checks.
type stores struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	sessions repository.SessionRepository
	counter  middleware.Counter
	health   map[string]handler.Pinger
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("Starting blog server",
		slog.String("environment", cfg.Server.Environment),
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("port", cfg.Server.Port),
	)

	st, err := openStores(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	store, err := newCookieStore(cfg)
	if err != nil {
		return err
	}

	sessionSvc := service.NewSessionService(st.sessions, st.users, cfg.Auth.SessionExpiry)
	oauthSvc := service.NewOAuthService(&cfg.Auth, st.users, sessionSvc)
	if cfg.Auth.OAuthGoogleID == "" || cfg.Auth.OAuthGoogleSecret == "" {
		logger.Warn("Google OAuth credentials missing, sign-in is disabled")
	}

	router := handler.NewRouter(handler.RouterConfig{
		Config: cfg,
		Services: handler.Services{
			OAuth:    oauthSvc,
			Sessions: sessionSvc,
			Posts:    service.NewPostService(st.posts),
			Feed:     service.NewFeedService(st.posts, st.users, cfg.Feed.PageSize),
		},
		Store:   store,
		Logger:  logger,
		Counter: st.counter,
		Health:  st.health,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("Shutting down server", slog.String("signal", sig.String()))
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	st := &stores{health: make(map[string]handler.Pinger)}

	switch cfg.Storage.Driver {
	case config.DriverMongo:
		m, err := database.NewMongo(cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		st.closers = append(st.closers, func() { _ = m.Close() })
		st.health["mongo"] = m
		logger.Info("Connected to MongoDB", slog.String("database", cfg.Mongo.Database))

		if st.users, err = repository.NewMongoUserRepository(ctx, m.Database()); err != nil {
			st.close()
			return nil, err
		}
		if st.posts, err = repository.NewMongoPostRepository(ctx, m.Database()); err != nil {
			st.close()
			return nil, err
		}

	case config.DriverPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		st.closers = append(st.closers, db.Close)
		st.health["postgres"] = db
		logger.Info("Connected to PostgreSQL")

		if err := database.RunMigrations(cfg.Database); err != nil {
			st.close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Database migrations completed")

		st.users = repository.NewUserRepository(db.Pool())
		st.posts = repository.NewPostRepository(db.Pool())

	default:
		logger.Warn("Using in-memory storage, data is lost on restart")
		st.users = repository.NewMemoryUserRepository()
		st.posts = repository.NewMemoryPostRepository()
	}

	if cfg.Redis.Enabled {
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			st.close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		st.closers = append(st.closers, func() { _ = rdb.Close() })
		st.health["redis"] = rdb
		st.sessions = repository.NewRedisSessionRepository(rdb)
		st.counter = rdb
		logger.Info("Connected to Redis", slog.String("addr", cfg.Redis.Addr()))
	} else {
		logger.Warn("Redis disabled, sessions are kept in memory and rate limiting is off")
		st.sessions = repository.NewMemorySessionRepository()
	}

	return st, nil
}

func newCookieStore(cfg *config.Config) (*sessions.CookieStore, error) {
	keys, err := securekeys.DeriveCookieKeys(cfg.Auth.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive cookie keys: %w", err)
	}

	store := sessions.NewCookieStore(keys.Pairs()...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Auth.SessionExpiry.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Server.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}
