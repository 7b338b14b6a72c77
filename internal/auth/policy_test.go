package auth

import (
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	rc := NewRouteClassifier()

	tests := []struct {
		path   string
		method string
		want   AccessPolicy
	}{
		// Public entry points.
		{"/", http.MethodGet, Public},
		{"/healthz", http.MethodGet, Public},
		{"/api/auth/register", http.MethodPost, Public},
		{"/api/auth/login", http.MethodPost, Public},
		{"/api/auth/reset", http.MethodPost, Public},
		{"/api/auth/reset/confirm", http.MethodPost, Public},

		// Exact rules override the /api/auth/ prefix.
		{"/api/auth/me", http.MethodGet, Authenticated},
		{"/api/auth/password", http.MethodPost, Authenticated},

		// Readable logged-out, mutations need a session.
		{"/api/posts", http.MethodGet, PublicGetOnly},
		{"/api/posts", http.MethodPost, Authenticated},
		{"/api/posts/42", http.MethodGet, PublicGetOnly},
		{"/api/posts/42/comments", http.MethodGet, PublicGetOnly},
		{"/api/posts/42/like", http.MethodPost, Authenticated},
		{"/api/users/ana", http.MethodGet, PublicGetOnly},
		{"/api/users/ana/follow", http.MethodPost, Authenticated},
		{"/api/search", http.MethodGet, PublicGetOnly},
		{"/api/search", http.MethodPost, Authenticated},

		// Moderation surface.
		{"/api/admin", http.MethodGet, AdminOnly},
		{"/api/admin/users", http.MethodGet, AdminOnly},
		{"/api/admin/users/7/ban", http.MethodPost, AdminOnly},

		// Anything unclassified requires login.
		{"/api/frobnicate", http.MethodGet, Authenticated},
		{"/metrics", http.MethodGet, Authenticated},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := rc.Classify(tt.path, tt.method); got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.path, tt.method, got, tt.want)
			}
		})
	}
}

func TestClassifyZeroValueIsAuthenticated(t *testing.T) {
	var p AccessPolicy
	if p != Authenticated {
		t.Errorf("zero AccessPolicy = %v, want Authenticated", p)
	}
}

func TestAccessPolicyString(t *testing.T) {
	tests := []struct {
		policy AccessPolicy
		want   string
	}{
		{Authenticated, "authenticated"},
		{Public, "public"},
		{PublicGetOnly, "public_get_only"},
		{AdminOnly, "admin_only"},
	}
	for _, tt := range tests {
		if got := tt.policy.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.policy, got, tt.want)
		}
	}
}
