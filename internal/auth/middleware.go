package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
)

// Middleware resolves bearer tokens into request principals.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user in the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		user, err := m.Service.Resolve(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("token resolution failed", slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
