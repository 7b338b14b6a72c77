package auth

import (
	"net/http"
)

// DenyReason says why a request was refused. The zero value means the
// request was allowed.
type DenyReason int

const (
	DenyNone DenyReason = iota

	// DenyUnauthenticated: the policy requires identity and the request
	// has none (missing cookie, expired or unknown session).
	DenyUnauthenticated

	// DenyBanned: the account is banned. Checked before any role check,
	// so a banned admin is still denied.
	DenyBanned

	// DenyForbidden: the account lacks the role the policy requires.
	DenyForbidden
)

// Decision is the outcome of evaluating an AccessPolicy against an
// AuthContext.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Decide evaluates an access policy against the request's AuthContext.
// It is a pure function, total over all inputs: every combination of
// policy, context, and method yields exactly one decision.
//
// Order matters: the public carve-outs come first (an anonymous GET on a
// PublicGetOnly route is allowed with whatever identity happens to be
// attached), then authentication, then the ban check, then roles.
func Decide(policy AccessPolicy, ctx *AuthContext, method string) Decision {
	if policy == Public || (policy == PublicGetOnly && method == http.MethodGet) {
		return Decision{Allowed: true}
	}

	if !ctx.IsAuthenticated() {
		return Decision{Reason: DenyUnauthenticated}
	}

	if ctx.User.IsBanned {
		return Decision{Reason: DenyBanned}
	}

	if policy == AdminOnly && !(ctx.User.IsAdmin || ctx.User.IsSuperadmin) {
		return Decision{Reason: DenyForbidden}
	}

	return Decision{Allowed: true}
}
