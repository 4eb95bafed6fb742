package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/config"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/handler/web"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/middleware"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/service"
)

// Services bundles what the router needs to serve requests.
type Services struct {
	OAuth    service.OAuthService
	Sessions service.SessionService
	Posts    service.PostService
	Feed     service.FeedService
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Config   *config.Config
	Services Services
	Store    sessions.Store
	Logger   *slog.Logger
	// Counter backs rate limiting. Nil disables it.
	Counter middleware.Counter
	// Health lists the components checked by /ready.
	Health map[string]Pinger
}

// NewRouter assembles the middleware chain and mounts every route.
func NewRouter(rc RouterConfig) http.Handler {
	cfg := rc.Config
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.Metrics())

	health := NewHealthHandler(rc.Health)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	limiter := middleware.RateLimit(rc.Counter, cfg.RateLimit)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireSession(rc.Store, rc.Services.Sessions, logger))
		r.Use(limiter)
		r.Mount("/posts", NewPostHandler(rc.Services.Posts).Routes())
	})

	webHandler := web.NewWebHandler(web.Options{
		OAuth:         rc.Services.OAuth,
		Sessions:      rc.Services.Sessions,
		Posts:         rc.Services.Posts,
		Feed:          rc.Services.Feed,
		Store:         rc.Store,
		Logger:        logger,
		PageSize:      cfg.Feed.PageSize,
		SessionExpiry: cfg.Auth.SessionExpiry,
		Limiter:       limiter,
	})
	r.Mount("/", webHandler.Routes())

	return gzhttp.GzipHandler(r)
}
