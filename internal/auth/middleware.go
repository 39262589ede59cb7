package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	"github.com/stagelink/stagelink/pkg/platform/httputil"
	"github.com/stagelink/stagelink/pkg/requestcontext"
)

type sessionKey struct{}

// ContextKeySession is exported for tests that build authenticated requests
// without running the middleware chain.
var ContextKeySession = sessionKey{}

// FromContext retrieves the authenticated session from the context.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ContextKeySession).(Session)
	return s, ok
}

// WithSession injects a session into a context. Test helper counterpart to
// RequireAuth.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, session)
}

// RequireAuth validates the bearer token and stores the resulting Session in
// the request context. Requests without a valid session are rejected before
// reaching any workflow operation.
func RequireAuth(manager *Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			session, err := manager.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, session)))
		})
	}
}
