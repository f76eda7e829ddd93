package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// SwaggerConfig controls access to the API documentation endpoints.
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs whitelists clients, as single addresses or CIDR ranges.
	// Empty means any client.
	AllowedIPs []string
}

// SwaggerProtection guards the swagger routes. Disabled configurations
// answer 404 so the documentation's existence is not advertised; an IP
// whitelist and an optional auth middleware narrow access further.
func SwaggerProtection(cfg SwaggerConfig, authMiddleware gin.HandlerFunc) gin.HandlerFunc {
	allowed := parseAllowedPrefixes(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "API documentation is not available",
			})
			return
		}

		if len(cfg.AllowedIPs) > 0 && !clientAllowed(c, allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Access to API documentation is restricted",
			})
			return
		}

		if cfg.RequireAuth && authMiddleware != nil {
			authMiddleware(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// parseAllowedPrefixes normalizes whitelist entries to prefixes; a bare
// address becomes a single-host prefix. Malformed entries are skipped.
func parseAllowedPrefixes(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			if prefix, err := netip.ParsePrefix(entry); err == nil {
				prefixes = append(prefixes, prefix)
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

func clientAllowed(c *gin.Context, allowed []netip.Prefix) bool {
	addr, ok := clientAddr(c)
	if !ok {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range allowed {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientAddr resolves the caller's address, preferring gin's ClientIP
// which already accounts for trusted proxies.
func clientAddr(c *gin.Context) (netip.Addr, bool) {
	if clientIP := c.ClientIP(); clientIP != "" {
		if addr, err := netip.ParseAddr(clientIP); err == nil {
			return addr, true
		}
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	return addr, err == nil
}
