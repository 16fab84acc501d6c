package authapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSetSessionCookie(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CookieSecure = true
	cfg.CookieSameSite = "strict"
	h := &Handler{cfg: cfg}

	rr := httptest.NewRecorder()
	h.setSessionCookie(rr, "tok-123", 30*time.Minute)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "sid" || c.Value != "tok-123" || c.Path != "/" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if c.MaxAge != 1800 || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie attributes: %+v", c)
	}
}

func TestExpireSessionCookie(t *testing.T) {
	h := &Handler{cfg: DefaultConfig()}

	rr := httptest.NewRecorder()
	h.expireSessionCookie(rr)

	c := rr.Result().Cookies()[0]
	if c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("expected deletion cookie, got %+v", c)
	}
}

func TestSessionToken(t *testing.T) {
	h := &Handler{cfg: DefaultConfig()}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := h.sessionToken(req); ok {
		t.Fatalf("expected no token without cookie")
	}

	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	if tok, ok := h.sessionToken(req); !ok || tok != "abc" {
		t.Fatalf("sessionToken=%q,%v want abc,true", tok, ok)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		xri        string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "xff ignored without trust", remote: "192.0.2.1:1234", xff: "198.51.100.7", want: "192.0.2.1"},
		{name: "xff first valid", remote: "192.0.2.1:1234", xff: "junk, 198.51.100.7, 10.0.0.1", trustProxy: true, want: "198.51.100.7"},
		{name: "x-real-ip fallback", remote: "192.0.2.1:1234", xri: "203.0.113.9", trustProxy: true, want: "203.0.113.9"},
		{name: "unparseable remote", remote: "nowhere", want: "<nil>"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}
			if got := clientIP(req, tc.trustProxy).String(); got != tc.want {
				t.Fatalf("clientIP=%s want %s", got, tc.want)
			}
		})
	}
}

func TestWriteRateLimited_RoundsUp(t *testing.T) {
	rr := httptest.NewRecorder()
	writeRateLimited(rr, 1500*time.Millisecond)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After=%q want 2", got)
	}
}
