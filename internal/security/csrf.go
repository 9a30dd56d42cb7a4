package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ceitcs/buildbook/internal/common"
)

// CSRF protects cookie-authenticated requests using the double-submit
// technique. Requests authenticated by an Authorization header, or carrying
// no session cookie, are not subject to it.
type CSRF struct {
	Header string
	// SessionCookie names the access-token cookie. Empty means every unsafe
	// request without a bearer header is checked.
	SessionCookie string
}

// Middleware enforces that unsafe requests include a token header matching the
// token cookie.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName := strings.TrimSpace(c.Header)
	if headerName == "" {
		headerName = "X-CSRF-Token"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.Header.Get("Authorization"))), "bearer ") {
			next.ServeHTTP(w, r)
			return
		}
		if c.SessionCookie != "" {
			if _, err := r.Cookie(c.SessionCookie); err != nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		cookie, err := r.Cookie(headerName)
		switch {
		case token == "":
			forbidden(w, "missing csrf token")
		case err != nil || strings.TrimSpace(cookie.Value) == "":
			forbidden(w, "missing csrf cookie")
		case subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1:
			forbidden(w, "invalid csrf token")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func forbidden(w http.ResponseWriter, msg string) {
	common.JSONError(w, http.StatusForbidden, "CSRF_INVALID", msg, nil)
}
