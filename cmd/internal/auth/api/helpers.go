package authapi

import (
	"net"
	"net/http"
	"strings"

	"filefly/cmd/accounts"
	"filefly/cmd/internal/auth/session"
)

func toSessionInfo(s session.Session, cfg session.Config) sessionInfoResponse {
	return sessionInfoResponse{
		Name:     s.AccountName,
		Root:     s.Root,
		Elevated: s.Elevated,
		Created:  s.CreatedAt,
		Updated:  s.UpdatedAt,
		Expires:  s.ExpiresAt(cfg),
		Type:     string(s.Kind),
	}
}

func toAccountResponse(a accounts.Account) accountResponse {
	return accountResponse{
		Name:       a.Name,
		Identifier: a.Identifier,
		Root:       a.Root,
		Created:    a.CreatedAt,
	}
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
