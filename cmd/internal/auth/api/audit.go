package authapi

import (
	"net"
	"time"
)

// Audit events are structured log records on a dedicated "audit" component logger.
// They carry account names and client addresses but never passwords or full tokens.

func (h *Handler) auditLoginFailed(name string, ip net.IP, reason string) {
	h.audit.Warn("auth.login.failed", "name", name, "ip", ipString(ip), "reason", reason)
}

func (h *Handler) auditLoginSuccess(name, identifier string, ip net.IP, long bool) {
	h.audit.Info("auth.login.success", "name", name, "identifier", identifier, "ip", ipString(ip), "long", long)
}

func (h *Handler) auditLoginRateLimited(name string, ip net.IP, retryAfter time.Duration) {
	h.audit.Warn("auth.login.rate_limited", "name", name, "ip", ipString(ip), "retry_after_s", int64(retryAfter.Seconds()))
}

func (h *Handler) auditElevate(identifier string, ip net.IP, result string) {
	h.audit.Info("auth.elevate", "identifier", identifier, "ip", ipString(ip), "result", result)
}

func (h *Handler) auditAccountCreated(by, name string, root bool, ip net.IP) {
	h.audit.Info("accounts.created", "by", by, "name", name, "root", root, "ip", ipString(ip))
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
