package auth

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
)

// SessionCookieName is the HTTP cookie that carries the session token.
const SessionCookieName = "session"

// EncodeSessionCookie builds the Set-Cookie header value for a session
// token. The cookie is HttpOnly (JS can't read it) and SameSite=Lax; the
// Secure attribute is appended when the request was served over TLS.
func EncodeSessionCookie(token string, ttlSeconds int, secure bool) string {
	header := fmt.Sprintf("%s=%s; Path=/; HttpOnly; SameSite=Lax; Max-Age=%d",
		SessionCookieName, token, ttlSeconds)
	if secure {
		header += "; Secure"
	}
	return header
}

// ClearSessionCookie builds the Set-Cookie header value that forces
// immediate client-side expiry of the session cookie.
func ClearSessionCookie(secure bool) string {
	return EncodeSessionCookie("", 0, secure)
}

// DecodeSessionCookie extracts the session token from a raw Cookie header.
// Returns "" when the header is empty, malformed, or has no session cookie.
// It never fails: a garbled header is the same as no cookie at all.
func DecodeSessionCookie(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if name == SessionCookieName {
			return value
		}
	}
	return ""
}

// --- Echo helpers ---
// Set-Cookie headers are written through EncodeSessionCookie so the exact
// cookie grammar lives in one place.

// requestIsSecure reports whether the request arrived over TLS, either
// directly or via a proxy that set X-Forwarded-Proto.
func requestIsSecure(c echo.Context) bool {
	req := c.Request()
	return req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https"
}

// readSessionToken extracts the session token from the request, or "".
func readSessionToken(c echo.Context) string {
	return DecodeSessionCookie(c.Request().Header.Get("Cookie"))
}

// setSessionCookie attaches a session cookie to the response.
func setSessionCookie(c echo.Context, token string, ttlSeconds int) {
	c.Response().Header().Add("Set-Cookie",
		EncodeSessionCookie(token, ttlSeconds, requestIsSecure(c)))
}

// clearSessionCookie attaches an expired session cookie to the response.
func clearSessionCookie(c echo.Context) {
	c.Response().Header().Add("Set-Cookie", ClearSessionCookie(requestIsSecure(c)))
}
