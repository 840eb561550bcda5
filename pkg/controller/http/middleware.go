package http

import (
	"context"
	"net/http"

	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
)

type subjectKey struct{}

// SubjectFrom returns the subject of the authenticated token, empty without auth
func SubjectFrom(ctx context.Context) string {
	if sub, ok := ctx.Value(subjectKey{}).(string); ok {
		return sub
	}
	return ""
}

// authMiddleware rejects requests without a valid bearer token
func authMiddleware(auth *JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.Verify(r)
			if err != nil {
				logging.From(r.Context()).Info("authentication failed", "error", err.Error(), "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="hindsight"`)
				writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey{}, token.Subject())
			ctx = logging.With(ctx, logging.From(ctx).With("sub", token.Subject()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
