package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parla-social/parla/internal/apperror"
)

// newAuthedEcho builds an Echo instance running Authenticate and Authorize
// over the in-memory fakes, with the error handler shaping denials the way
// the application does.
func newAuthedEcho(users *memUserRepo, sessions *memSessionStore) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		_ = c.JSON(apperror.SafeCode(err), map[string]any{
			"success": false,
			"error":   apperror.SafeMessage(err),
		})
	}
	e.Use(Authenticate(sessions, users))
	e.Use(Authorize(NewRouteClassifier()))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/api/auth/me", func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return apperror.NewUnauthenticated("authentication required")
		}
		return c.JSON(http.StatusOK, map[string]any{"username": user.Username})
	})
	e.GET("/api/posts", func(c echo.Context) error {
		user := CurrentUser(c)
		name := ""
		if user != nil {
			name = user.Username
		}
		return c.JSON(http.StatusOK, map[string]any{"viewer": name})
	})
	e.GET("/api/admin/users", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"success": true})
	})
	return e
}

// issueSession seeds a live session and returns its Cookie header value.
func issueSession(t *testing.T, sessions *memSessionStore, userID int64) string {
	t.Helper()
	token, err := sessions.Create(context.Background(), userID, time.Hour, SessionMetadata{})
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return SessionCookieName + "=" + token
}

func doRequest(e *echo.Echo, method, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateAnonymousOnPublicRoute(t *testing.T) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	e := newAuthedEcho(users, sessions)

	rec := doRequest(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthenticateAttachesUser(t *testing.T) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	user := seedUser(users, "ana", "ana@example.com", "s3gredo!pw")
	e := newAuthedEcho(users, sessions)

	cookie := issueSession(t, sessions, user.ID)
	rec := doRequest(e, http.MethodGet, "/api/auth/me", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"username":"ana"`) {
		t.Errorf("body %q does not carry the authenticated username", rec.Body.String())
	}
}

func TestAuthenticateIdentityOnPublicRoute(t *testing.T) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	user := seedUser(users, "ana", "ana@example.com", "s3gredo!pw")
	e := newAuthedEcho(users, sessions)

	// Identity is established even where none is required, so public
	// pages can personalize.
	cookie := issueSession(t, sessions, user.ID)
	rec := doRequest(e, http.MethodGet, "/api/posts", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"viewer":"ana"`) {
		t.Errorf("body %q does not carry the viewer identity", rec.Body.String())
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	user := seedUser(users, "ana", "ana@example.com", "s3gredo!pw")
	e := newAuthedEcho(users, sessions)

	token, err := sessions.Create(context.Background(), user.ID, time.Hour, SessionMetadata{})
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	sessions.sessions[token].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	rec := doRequest(e, http.MethodGet, "/api/auth/me", SessionCookieName+"="+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	// The stale cookie must be cleared.
	setCookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, SessionCookieName+"=;") || !strings.Contains(setCookie, "Max-Age=0") {
		t.Errorf("Set-Cookie = %q, want an expiring session cookie", setCookie)
	}
}

func TestAuthenticateOrphanedSession(t *testing.T) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	e := newAuthedEcho(users, sessions)

	// A session whose user no longer exists.
	cookie := issueSession(t, sessions, 999)
	rec := doRequest(e, http.MethodGet, "/api/auth/me", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateStorageFailure(t *testing.T) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	user := seedUser(users, "ana", "ana@example.com", "s3gredo!pw")
	e := newAuthedEcho(users, sessions)

	cookie := issueSession(t, sessions, user.ID)
	sessions.failAll = true

	// A storage outage must surface as 500, never as a silent logout.
	rec := doRequest(e, http.MethodGet, "/api/auth/me", cookie)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestAuthorizeDenials(t *testing.T) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	member := seedUser(users, "ana", "ana@example.com", "s3gredo!pw")
	admin := seedUser(users, "mod", "mod@example.com", "s3gredo!pw")
	if err := users.SetAdmin(context.Background(), admin.ID, true); err != nil {
		t.Fatalf("SetAdmin failed: %v", err)
	}
	banned := seedUser(users, "troll", "troll@example.com", "s3gredo!pw")
	if err := users.SetBanned(context.Background(), banned.ID, true); err != nil {
		t.Fatalf("SetBanned failed: %v", err)
	}
	e := newAuthedEcho(users, sessions)

	memberCookie := issueSession(t, sessions, member.ID)
	adminCookie := issueSession(t, sessions, admin.ID)
	bannedCookie := issueSession(t, sessions, banned.ID)

	tests := []struct {
		name       string
		path       string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"anonymous on authenticated route", "/api/auth/me", "", http.StatusUnauthorized, "authentication required"},
		{"member on admin route", "/api/admin/users", memberCookie, http.StatusForbidden, "admin access required"},
		{"admin on admin route", "/api/admin/users", adminCookie, http.StatusOK, ""},
		{"banned on authenticated route", "/api/auth/me", bannedCookie, http.StatusForbidden, "banned"},
		{"banned on public route", "/api/posts", bannedCookie, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodGet, tt.path, tt.cookie)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestCurrentWithoutAuthenticate(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if got := Current(c); got == nil {
		t.Fatal("Current must never return nil")
	}
	if CurrentUser(c) != nil {
		t.Error("CurrentUser must be nil without Authenticate")
	}
	if CurrentSession(c) != nil {
		t.Error("CurrentSession must be nil without Authenticate")
	}
}
