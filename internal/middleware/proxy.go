package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies installs an IP extractor that honors X-Real-IP and
// X-Forwarded-For only when the direct peer falls inside one of the given
// CIDR ranges. Session records and the audit log store c.RealIP(), so the
// extractor decides whose address an investigation sees: with no trusted
// ranges every request reports the proxy's address, with overly broad
// ranges a client can spoof its own.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	e.IPExtractor = clientIPExtractor(parseCIDRs(trustedCIDRs))
}

// parseCIDRs parses the configured ranges, logging and skipping any that
// do not parse so one typo does not take the server down.
func parseCIDRs(cidrs []string) []*net.IPNet {
	var trusted []*net.IPNet
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR",
				slog.String("cidr", cidr),
			)
			continue
		}
		trusted = append(trusted, network)
	}
	return trusted
}

// clientIPExtractor resolves the client address for a request. Forwarding
// headers are consulted only when the TCP peer is a trusted proxy;
// otherwise the peer address is the client address.
func clientIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	return func(req *http.Request) string {
		peer := peerIP(req.RemoteAddr)
		if !inRanges(peer, trusted) {
			return peer
		}

		if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}

		// X-Forwarded-For is a comma-separated chain; the leftmost entry
		// is the originating client.
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}

		return peer
	}
}

// peerIP strips the port from a RemoteAddr "host:port" string.
func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// inRanges reports whether the address falls inside any trusted range.
func inRanges(addr string, ranges []*net.IPNet) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range ranges {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
