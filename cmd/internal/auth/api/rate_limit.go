package authapi

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"filefly/cmd/internal/auth/ratelimit"
)

func loginKeys(name string, ip net.IP) []string {
	keys := []string{ratelimit.NameKey(name)}
	if ip != nil {
		keys = append(keys, ratelimit.IPKey(ip.String()))
	}
	return keys
}

// checkLoginThrottle reports whether any key is over its failure budget.
// Limiter outages fail open: they are logged and the login proceeds.
func (h *Handler) checkLoginThrottle(ctx context.Context, keys []string) (bool, time.Duration) {
	for _, k := range keys {
		ok, retryAfter, err := h.limiter.Allow(ctx, k)
		if err != nil {
			h.log.Error("auth.login.throttle.fail", "err", err)
			continue
		}
		if !ok {
			return true, retryAfter
		}
	}
	return false, 0
}

func (h *Handler) recordLoginFailure(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := h.limiter.Fail(ctx, k); err != nil {
			h.log.Error("auth.login.throttle.record.fail", "err", err)
		}
	}
}

// recordLoginSuccess clears the per-name budget only; per-IP failures keep counting.
func (h *Handler) recordLoginSuccess(ctx context.Context, name string) {
	if err := h.limiter.Reset(ctx, ratelimit.NameKey(name)); err != nil {
		h.log.Error("auth.login.throttle.reset.fail", "err", err)
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64((retryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
