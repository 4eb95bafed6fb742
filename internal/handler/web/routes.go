// Package web provides HTTP handlers for the server-rendered pages.
package web

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/middleware"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/service"
	"github.com/ritrax1/GOAuth2BlogDemo/templates/pages"
)

// OAuthStateCookie holds the CSRF state between the start and callback routes.
const OAuthStateCookie = "blog_oauth_state"

// Options configures a WebHandler.
type Options struct {
	OAuth         service.OAuthService
	Sessions      service.SessionService
	Posts         service.PostService
	Feed          service.FeedService
	Store         sessions.Store
	Logger        *slog.Logger
	PageSize      int
	SessionExpiry time.Duration
	// Limiter wraps the mutating form routes. Optional.
	Limiter func(http.Handler) http.Handler
}

// WebHandler handles HTTP requests for the web pages.
type WebHandler struct {
	oauthService   service.OAuthService
	sessionService service.SessionService
	postService    service.PostService
	feedService    service.FeedService
	sessionStore   sessions.Store
	logger         *slog.Logger
	pageSize       int
	sessionMaxAge  int
	limiter        func(http.Handler) http.Handler
}

// NewWebHandler creates a new WebHandler instance.
func NewWebHandler(opts Options) *WebHandler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = func(next http.Handler) http.Handler { return next }
	}
	expiry := opts.SessionExpiry
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}

	return &WebHandler{
		oauthService:   opts.OAuth,
		sessionService: opts.Sessions,
		postService:    opts.Posts,
		feedService:    opts.Feed,
		sessionStore:   opts.Store,
		logger:         logger,
		pageSize:       opts.PageSize,
		sessionMaxAge:  int(expiry.Seconds()),
		limiter:        limiter,
	}
}

// Routes returns the chi router with all web routes configured.
func (h *WebHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/", h.LandingPage)
	r.Get("/logout", h.Logout)
	r.Get("/auth/google", h.OAuthStart)
	r.Get("/auth/google/callback", h.OAuthCallback)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.sessionStore, h.sessionService, h.logger))

		r.Get("/dashboard", h.Dashboard)
		r.Get("/profile", h.Profile)
		r.Get("/posts/new", h.NewPost)
		r.Get("/posts/{id}/edit", h.EditPost)

		r.Group(func(r chi.Router) {
			r.Use(h.limiter)

			r.Post("/posts", h.CreatePost)
			r.Post("/posts/{id}/update", h.UpdatePost)
			r.Post("/posts/{id}/delete", h.DeletePost)
			r.Post("/posts/{id}/like", h.LikePost)
			r.Post("/posts/{id}/comments", h.AddComment)
		})
	})

	return r
}

// LandingPage shows sign-in, or sends signed-in users to the feed.
func (h *WebHandler) LandingPage(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(h.sessionStore, r)
	if sessionID != "" {
		if p, err := h.sessionService.Resolve(r.Context(), sessionID); err == nil && p != nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
	}

	component := pages.Landing(pages.LandingData{Error: r.URL.Query().Get("error")})
	templ.Handler(component).ServeHTTP(w, r)
}

// Logout ends the server-side session and clears the cookie.
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, middleware.SessionCookieName)

	if sessionID, ok := session.Values[middleware.SessionIDKey].(string); ok && sessionID != "" {
		if err := h.sessionService.End(r.Context(), sessionID); err != nil {
			h.logger.Error("failed to end session", slog.Any("error", err))
		}
	}

	delete(session.Values, middleware.SessionIDKey)
	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	http.Redirect(w, r, "/", http.StatusFound)
}

// OAuthStart initiates the Google OAuth flow.
func (h *WebHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	state, err := generateSecureState()
	if err != nil {
		http.Redirect(w, r, "/?error=Failed+to+initialize+sign-in", http.StatusFound)
		return
	}

	authURL, err := h.oauthService.GetAuthURL(state)
	if err != nil {
		http.Redirect(w, r, "/?error=Google+sign-in+is+not+configured", http.StatusFound)
		return
	}

	// Store state in a short-lived cookie for verification
	session, _ := h.sessionStore.Get(r, OAuthStateCookie)
	session.Values["state"] = state
	session.Options.MaxAge = 300
	session.Options.HttpOnly = true
	session.Options.SameSite = http.SameSiteLaxMode
	session.Options.Secure = session.Options.Secure || r.TLS != nil
	if err := session.Save(r, w); err != nil {
		http.Redirect(w, r, "/?error=Failed+to+initialize+sign-in", http.StatusFound)
		return
	}

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// OAuthCallback completes the Google OAuth flow.
func (h *WebHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("error") != "" {
		middleware.IncrementLogins(false)
		http.Redirect(w, r, "/?error=Google+sign-in+was+cancelled", http.StatusFound)
		return
	}

	stateSession, _ := h.sessionStore.Get(r, OAuthStateCookie)
	savedState, ok := stateSession.Values["state"].(string)
	if !ok || savedState == "" || savedState != q.Get("state") {
		middleware.IncrementLogins(false)
		http.Redirect(w, r, "/?error=Invalid+OAuth+state", http.StatusFound)
		return
	}

	// State is single use
	delete(stateSession.Values, "state")
	stateSession.Options.MaxAge = -1
	_ = stateSession.Save(r, w)

	user, sessionID, err := h.oauthService.HandleCallback(r.Context(), q.Get("code"))
	if err != nil {
		middleware.IncrementLogins(false)
		h.logger.Warn("google sign-in failed", slog.Any("error", err))
		http.Redirect(w, r, "/?error=Google+sign-in+failed", http.StatusFound)
		return
	}

	if err := h.setSessionCookie(w, r, sessionID); err != nil {
		h.logger.Error("failed to save session cookie", slog.Any("error", err))
		http.Redirect(w, r, "/?error=Failed+to+start+session", http.StatusFound)
		return
	}

	middleware.IncrementLogins(true)
	h.logger.Info("user signed in", slog.String("user_id", user.ID.String()))
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *WebHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) error {
	session, _ := h.sessionStore.Get(r, middleware.SessionCookieName)
	session.Values[middleware.SessionIDKey] = sessionID
	session.Options.Path = "/"
	session.Options.MaxAge = h.sessionMaxAge
	session.Options.HttpOnly = true
	session.Options.SameSite = http.SameSiteLaxMode
	session.Options.Secure = session.Options.Secure || r.TLS != nil
	return session.Save(r, w)
}

func generateSecureState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
