package security

import (
	"net/http"

	"github.com/ceitcs/buildbook/internal/common"
)

// BodyLimit caps request payloads. A declared Content-Length over Max is
// refused up front; otherwise the body is wrapped so decoding stops at Max and
// common.DecodeJSON reports 413.
type BodyLimit struct {
	Max int64
}

// Middleware applies the limit to next.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", map[string]any{"maxBytes": b.Max})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
