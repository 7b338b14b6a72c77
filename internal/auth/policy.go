package auth

import (
	"net/http"
	"sort"
	"strings"
)

// AccessPolicy is the access level a route/method pair requires. Policies
// are computed per request from the ordered rule table below; they are
// never stored.
type AccessPolicy int

const (
	// Authenticated requires any logged-in, non-banned user. It is the
	// zero value so that unclassified routes require login rather than
	// being silently public.
	Authenticated AccessPolicy = iota

	// Public requires no identity for any method.
	Public

	// PublicGetOnly permits unauthenticated GET; every other method on
	// the route requires Authenticated.
	PublicGetOnly

	// AdminOnly requires a logged-in, non-banned user with the admin or
	// superadmin flag.
	AdminOnly
)

// String returns the policy name for logs and tests.
func (p AccessPolicy) String() string {
	switch p {
	case Public:
		return "public"
	case PublicGetOnly:
		return "public_get_only"
	case AdminOnly:
		return "admin_only"
	default:
		return "authenticated"
	}
}

// routeRule maps an exact path or a path prefix to an AccessPolicy.
type routeRule struct {
	path   string
	prefix bool // when true, path is matched as a prefix
	policy AccessPolicy
}

// RouteClassifier maps (path, method) to the AccessPolicy the route
// requires. Rules are evaluated first-match-wins; the table is sorted at
// construction so longer (more specific) paths always win over shorter
// prefixes, and exact matches win over a prefix of equal length.
type RouteClassifier struct {
	rules []routeRule
}

// NewRouteClassifier builds the classifier with the platform's route table.
// Rules for the collaborator surfaces (posts, profiles, search) live here
// too: classification is centralized so there is exactly one list of public
// routes in the whole system.
func NewRouteClassifier() *RouteClassifier {
	rules := []routeRule{
		// Landing page and health probe.
		{path: "/", policy: Public},
		{path: "/healthz", policy: Public},

		// Account entry points: register, login, logout, password reset.
		{path: "/api/auth/", prefix: true, policy: Public},

		// Session introspection and password change need a session even
		// though they sit under the public auth prefix.
		{path: "/api/auth/me", policy: Authenticated},
		{path: "/api/auth/password", policy: Authenticated},

		// Posts and comments: the feed is readable logged-out, any
		// mutation (create, like, comment, delete) requires login.
		{path: "/api/posts", policy: PublicGetOnly},
		{path: "/api/posts/", prefix: true, policy: PublicGetOnly},

		// Profiles: viewable logged-out; follow/unfollow and profile
		// edits are mutations and fall back to Authenticated.
		{path: "/api/users/", prefix: true, policy: PublicGetOnly},

		// Content search is public for readers.
		{path: "/api/search", policy: PublicGetOnly},

		// Moderation and statistics surface.
		{path: "/api/admin", policy: AdminOnly},
		{path: "/api/admin/", prefix: true, policy: AdminOnly},
	}

	// Longest path first so overlapping prefixes resolve to the most
	// specific rule; exact beats prefix at equal length. SliceStable keeps
	// declaration order for rules the ordering can't distinguish.
	sort.SliceStable(rules, func(i, j int) bool {
		if len(rules[i].path) != len(rules[j].path) {
			return len(rules[i].path) > len(rules[j].path)
		}
		return !rules[i].prefix && rules[j].prefix
	})

	return &RouteClassifier{rules: rules}
}

// Classify returns the AccessPolicy for a request. Anything the table does
// not match requires Authenticated. A PublicGetOnly route accessed with a
// non-GET method classifies as Authenticated: the public carve-out applies
// to reads only.
func (rc *RouteClassifier) Classify(path, method string) AccessPolicy {
	policy := AccessPolicy(0) // Authenticated unless a rule matches.
	for _, r := range rc.rules {
		if r.prefix {
			if strings.HasPrefix(path, r.path) {
				policy = r.policy
				break
			}
		} else if path == r.path {
			policy = r.policy
			break
		}
	}

	if policy == PublicGetOnly && method != http.MethodGet {
		return Authenticated
	}
	return policy
}
