package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/response"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/service"
)

// Cookie session names and keys.
const (
	SessionCookieName = "blog_session"
	SessionIDKey      = "session_id"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// PrincipalKey is the context key for the authenticated principal.
const PrincipalKey contextKey = "principal"

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipal retrieves the authenticated principal from context.
func GetPrincipal(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(PrincipalKey).(*models.Principal)
	return p
}

// SessionID reads the server-side session id from the request's cookie session.
func SessionID(store sessions.Store, r *http.Request) string {
	session, err := store.Get(r, SessionCookieName)
	if err != nil {
		return ""
	}
	id, _ := session.Values[SessionIDKey].(string)
	return id
}

// RequireSession admits only requests whose cookie names a live session.
// Everything else is redirected to the landing page without running next.
// A store failure is a 500, not a logout.
// It only reads session state.
func RequireSession(store sessions.Store, sessionSvc service.SessionService, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := sessionSvc.Resolve(r.Context(), SessionID(store, r))
			if err != nil {
				logger.Error("failed to resolve session", slog.Any("error", err))
				response.Error(w, err)
				return
			}
			if principal == nil {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
