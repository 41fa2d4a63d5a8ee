package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tendant/simple-signup/pkg/secheaders"
	"github.com/tendant/simple-signup/pkg/securetoken"
)

// SessionCookieName is the cookie carrying the anonymous session ID the
// CSRF store is scoped to.
const SessionCookieName = "signup_session"

const sessionIDByteLength = 24

const sessionLifetime = 24 * time.Hour

type contextKey string

const sessionContextKey contextKey = "signup_session_id"

// SessionMiddleware ensures every request carries a session ID, issuing a
// new cookie when none is present. Cookie attributes come from the security
// header policy's cookie setter.
func SessionMiddleware(cookieSetter secheaders.CookieSetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				sessionID = cookie.Value
			}

			if sessionID == "" {
				id, err := securetoken.GenerateNonce(sessionIDByteLength)
				if err != nil {
					http.Error(w, "Service temporarily unavailable", http.StatusInternalServerError)
					return
				}
				sessionID = id
				cookieSetter.SetCookie(w, r, SessionCookieName, sessionID, time.Now().Add(sessionLifetime))
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// WithSessionID stores a session ID in the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey, sessionID)
}

// SessionID returns the session ID for the current request, or "".
func SessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionContextKey).(string)
	return sessionID
}
