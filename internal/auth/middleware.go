package auth

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/obs"
)

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Authenticator Authenticator
	Logger        zerolog.Logger
}

// Authenticate attaches the principal to the request context. Requests with
// missing or invalid credentials continue as anonymous.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p common.Principal
		if m.Authenticator != nil {
			resolved, err := m.Authenticator.Authenticate(r)
			switch {
			case err == nil:
				p = resolved
			case errors.Is(err, ErrNoCredentials):
			default:
				m.Logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected credentials")
			}
		}
		next.ServeHTTP(w, r.WithContext(common.WithPrincipal(r.Context(), p)))
	})
}

// RequireRoles gates the next handler on the context principal holding one of
// roles. With no roles any authenticated principal passes.
func (m Middleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(common.PrincipalFrom(r.Context()), roles...)
			obs.Inc(obs.AuthDecisionsTotal, d.Outcome)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Location", d.Redirect)
			if d.Status == http.StatusUnauthorized {
				common.JSONError(w, d.Status, "UNAUTHORIZED", "authentication required", map[string]any{"redirect": d.Redirect})
				return
			}
			common.JSONError(w, d.Status, "FORBIDDEN", "insufficient role", map[string]any{"redirect": d.Redirect})
		})
	}
}
