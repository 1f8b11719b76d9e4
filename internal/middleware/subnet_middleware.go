package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"bedrock_usage/internal/config"
	"bedrock_usage/internal/utils"
)

// SubnetAllowlist restricts access to clients inside the configured
// subnets. Loopback clients are always allowed. Internal errors while
// resolving the client address fail open so a misconfigured proxy
// never takes the dashboard down.
func SubnetAllowlist(cfg config.SubnetConfig) func(http.Handler) http.Handler {
	logger := utils.NewLogger("subnet-allowlist")

	prefixes := make([]netip.Prefix, 0, len(cfg.CIDRs))
	for _, cidr := range cfg.CIDRs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			logger.Warn("skipping invalid subnet", "cidr", cidr, "error", err)
			continue
		}
		prefixes = append(prefixes, prefix)
	}

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := clientAddr(r)
			if !ok {
				logger.Warn("could not determine client address, allowing", "remote", r.RemoteAddr)
				next.ServeHTTP(w, r)
				return
			}

			if addr.IsLoopback() {
				next.ServeHTTP(w, r)
				return
			}

			for _, prefix := range prefixes {
				if prefix.Contains(addr) {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("rejected client outside allowed subnets", "client", addr.String())
			utils.RespondWithError(w, http.StatusForbidden, "forbidden", "Access restricted to internal networks")
		})
	}
}

// clientAddr resolves the client IP, preferring the first entry of
// X-Forwarded-For when a proxy set one.
func clientAddr(r *http.Request) (netip.Addr, bool) {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		if addr, err := netip.ParseAddr(first); err == nil {
			return addr.Unmap(), true
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
