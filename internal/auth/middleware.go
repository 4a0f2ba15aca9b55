package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/borisrunfast/auction-house/internal/model"
	"github.com/borisrunfast/auction-house/internal/repository"
)

// contextKey is unexported so only this package can place or read session
// values in a request context.
type contextKey string

const sessionKey contextKey = "session"

// LoadSession resolves the session cookie to a session record and stores
// it in the request context. It never blocks a request: a missing,
// invalid or expired cookie simply leaves the request anonymous, which the
// pages render as the guest state.
func LoadSession(tokens *TokenService, sessions repository.SessionRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sessionID, err := tokens.Validate(cookie.Value)
			if err != nil {
				// Tampered or expired cookie: drop it so the browser
				// stops sending it.
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.GetByID(r.Context(), sessionID)
			if err != nil {
				if err != repository.ErrSessionNotFound {
					logger.Error("loading session",
						slog.String("session_id", sessionID),
						slog.String("error", err.Error()),
					)
				}
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the request's session record, or (nil, false)
// for guests.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*model.Session)
	return session, ok && session != nil
}
