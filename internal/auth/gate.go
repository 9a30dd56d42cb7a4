package auth

import (
	"net/http"

	"github.com/ceitcs/buildbook/internal/common"
)

// Redirect targets for rejected requests.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decision outcomes as reported to metrics.
const (
	OutcomeAllow           = "allow"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
)

// Decision is the result of gating a principal.
type Decision struct {
	Allowed  bool
	Outcome  string
	Status   int
	Redirect string
}

// Decide reports whether p may access a route restricted to roles.
// Unauthenticated principals are sent to the login page, authenticated ones
// lacking a role to the home page.
func Decide(p common.Principal, roles ...string) Decision {
	if !p.Authenticated {
		return Decision{Outcome: OutcomeUnauthenticated, Status: http.StatusUnauthorized, Redirect: LoginPath}
	}
	if len(roles) > 0 && !p.HasRole(roles...) {
		return Decision{Outcome: OutcomeForbidden, Status: http.StatusForbidden, Redirect: HomePath}
	}
	return Decision{Allowed: true, Outcome: OutcomeAllow, Status: http.StatusOK}
}
