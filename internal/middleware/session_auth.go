package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/worklance/backend/internal/auth"
)

type contextKey string

const ctxSessionKey contextKey = "session"

// TokenValidator verifies a bearer token and returns its session.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (auth.Session, error)
}

// RequireIdentity authenticates requests via the session manager, falling
// back to token validation on a cache miss. Requests without a valid
// bearer token are rejected.
func RequireIdentity(sessions *auth.Manager, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}

			sess, ok := sessions.Load(token)
			if !ok {
				var err error
				sess, err = validator.ValidateToken(r.Context(), token)
				if err != nil || !sess.Valid() {
					http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
					return
				}
				sessions.Save(token, sess)
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// OptionalIdentity attaches a session when a valid bearer token is present
// and passes the request through unchanged otherwise. Balance reads use
// this: they never force a login.
func OptionalIdentity(sessions *auth.Manager, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, ok := sessions.Load(token)
			if !ok {
				var err error
				sess, err = validator.ValidateToken(r.Context(), token)
				if err != nil || !sess.Valid() {
					next.ServeHTTP(w, r)
					return
				}
				sessions.Save(token, sess)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// SessionFromCtx returns the authenticated session; the zero session means
// no identity.
func SessionFromCtx(ctx context.Context) auth.Session {
	sess, _ := ctx.Value(ctxSessionKey).(auth.Session)
	return sess
}

// WithSession returns a context carrying the given session.
func WithSession(ctx context.Context, sess auth.Session) context.Context {
	return context.WithValue(ctx, ctxSessionKey, sess)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
