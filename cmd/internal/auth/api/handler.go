package authapi

import (
	"errors"
	"log/slog"
	"net/http"

	"filefly/cmd/accounts"
	"filefly/cmd/internal/auth/ratelimit"
	"filefly/cmd/internal/auth/session"
)

// Handler wires HTTP session and account endpoints to the credential store and session manager.
type Handler struct {
	log   *slog.Logger
	audit *slog.Logger
	cfg   Config

	accounts *accounts.Service
	sessions *session.Manager
	limiter  ratelimit.Limiter
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithLimiter overrides the default in-memory login limiter.
func WithLimiter(l ratelimit.Limiter) HandlerOption {
	return func(h *Handler) {
		if h == nil || l == nil {
			return
		}
		h.limiter = l
	}
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, cfg Config, accts *accounts.Service, sessions *session.Manager, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if accts == nil || sessions == nil {
		return nil, errors.New("authapi: nil accounts or session manager")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Handler{
		log:      log.With("component", "authapi"),
		audit:    log.With("component", "audit"),
		cfg:      cfg,
		accounts: accts,
		sessions: sessions,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	if h.limiter == nil {
		h.limiter = ratelimit.NewMemory(cfg.LoginLimit, nil)
	}
	return h, nil
}

// Register wires routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/v1/session/new", h.handleSessionNew)
	mux.HandleFunc("/api/v1/session/renew", h.handleSessionRenew)
	mux.HandleFunc("/api/v1/session/info", h.handleSessionInfo)
	mux.HandleFunc("/api/v1/session/elevate", h.handleSessionElevate)
	mux.HandleFunc("/api/v1/accounts", h.handleAccounts)
}

// ---- handlers ----

func (h *Handler) handleSessionNew(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req sessionNewRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.User == "" || req.Pass == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user and pass are required")
		return
	}

	ctx := r.Context()
	ip := clientIP(r, h.cfg.TrustProxy)
	keys := loginKeys(req.User, ip)

	if blocked, retryAfter := h.checkLoginThrottle(ctx, keys); blocked {
		h.auditLoginRateLimited(req.User, ip, retryAfter)
		writeRateLimited(w, retryAfter)
		return
	}

	tok, err := h.sessions.Create(ctx, req.User, req.Pass, req.Long)
	if err != nil {
		if errors.Is(err, session.ErrBadNameOrPass) {
			h.recordLoginFailure(ctx, keys)
			h.auditLoginFailed(req.User, ip, err.Error())
			writeError(w, http.StatusUnauthorized, session.ErrBadNameOrPass.Error(), "invalid username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, session.ErrUnknown.Error(), "internal error")
		return
	}
	h.recordLoginSuccess(ctx, req.User)

	s, err := h.sessions.Renew(tok)
	if err != nil {
		// Swept between Create and Renew; only possible with a zero-length window.
		writeError(w, http.StatusInternalServerError, session.ErrUnknown.Error(), "internal error")
		return
	}

	cfg := h.sessions.Config()
	h.auditLoginSuccess(s.AccountName, s.AccountIdentifier, ip, req.Long)
	h.setSessionCookie(w, tok, cfg.DurationFor(s.Kind))
	writeJSON(w, http.StatusOK, toSessionInfo(s, cfg))
}

func (h *Handler) handleSessionRenew(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tok, ok := h.sessionToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, session.ErrSessionNotFound.Error(), "no session")
		return
	}
	if _, err := h.sessions.Renew(tok); err != nil {
		h.expireSessionCookie(w)
		writeError(w, http.StatusUnauthorized, session.ErrSessionNotFound.Error(), "session not active")
		return
	}
	s, err := h.sessions.Extend(tok)
	if err != nil {
		h.expireSessionCookie(w)
		writeError(w, http.StatusUnauthorized, session.ErrSessionNotFound.Error(), "session not active")
		return
	}

	cfg := h.sessions.Config()
	h.setSessionCookie(w, tok, cfg.DurationFor(s.Kind))
	writeJSON(w, http.StatusOK, toSessionInfo(s, cfg))
}

func (h *Handler) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionInfo(s, h.sessions.Config()))
}

func (h *Handler) handleSessionElevate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tok, ok := h.sessionToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, session.ErrUnknownSession.Error(), "no session")
		return
	}

	var req elevateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	ip := clientIP(r, h.cfg.TrustProxy)
	err := h.sessions.Elevate(r.Context(), tok, req.Pass)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrUnknownSession):
		h.expireSessionCookie(w)
		writeError(w, http.StatusUnauthorized, err.Error(), "session not active")
		return
	case errors.Is(err, session.ErrBadNameOrPass):
		h.auditElevate("", ip, err.Error())
		writeError(w, http.StatusUnauthorized, err.Error(), "invalid password")
		return
	case errors.Is(err, session.ErrRootRequired):
		h.auditElevate("", ip, err.Error())
		writeError(w, http.StatusForbidden, err.Error(), "root account required")
		return
	default:
		writeError(w, http.StatusInternalServerError, session.ErrUnknown.Error(), "internal error")
		return
	}

	s, err := h.sessions.Renew(tok)
	if err != nil {
		writeError(w, http.StatusUnauthorized, session.ErrUnknownSession.Error(), "session not active")
		return
	}
	cfg := h.sessions.Config()
	h.auditElevate(s.AccountIdentifier, ip, "ok")
	h.setSessionCookie(w, tok, cfg.DurationFor(s.Kind))
	writeJSON(w, http.StatusOK, toSessionInfo(s, cfg))
}

func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleAccountList(w, r)
	case http.MethodPost:
		h.handleAccountCreate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleAccountList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.elevatedSession(w, r); !ok {
		return
	}

	all, err := h.accounts.List(r.Context())
	if err != nil {
		h.log.Error("accounts.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, session.ErrUnknown.Error(), "internal error")
		return
	}
	out := accountListResponse{Accounts: make([]accountResponse, 0, len(all))}
	for _, a := range all {
		out.Accounts = append(out.Accounts, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.elevatedSession(w, r)
	if !ok {
		return
	}

	var req accountCreateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	ctx := r.Context()
	in := accounts.CreateInput{Name: req.Name, Password: req.Pass, Root: req.Root}
	if err := h.accounts.Create(ctx, in, false); err != nil {
		switch {
		case errors.Is(err, accounts.ErrUserExists):
			writeError(w, http.StatusConflict, accounts.KindOf(err), "account already exists")
		case accounts.IsValidation(err):
			writeError(w, http.StatusBadRequest, accounts.KindOf(err), "account rejected by policy")
		default:
			h.log.Error("accounts.create.fail", "err", err)
			writeError(w, http.StatusInternalServerError, session.ErrUnknown.Error(), "internal error")
		}
		return
	}

	acct, err := h.accounts.Get(ctx, req.Name)
	if err != nil {
		h.log.Error("accounts.create.readback.fail", "err", err)
		writeError(w, http.StatusInternalServerError, session.ErrUnknown.Error(), "internal error")
		return
	}
	h.auditAccountCreated(s.AccountIdentifier, acct.Name, acct.Root, clientIP(r, h.cfg.TrustProxy))
	writeJSON(w, http.StatusCreated, toAccountResponse(acct))
}

// currentSession resolves the cookie to a live session or writes a 401.
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	tok, ok := h.sessionToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, session.ErrSessionNotFound.Error(), "no session")
		return session.Session{}, false
	}
	s, err := h.sessions.Renew(tok)
	if err != nil {
		h.expireSessionCookie(w)
		writeError(w, http.StatusUnauthorized, session.ErrSessionNotFound.Error(), "session not active")
		return session.Session{}, false
	}
	return s, true
}

// elevatedSession is currentSession plus a 403 for sessions that are not elevated.
func (h *Handler) elevatedSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return session.Session{}, false
	}
	if !s.Elevated {
		writeError(w, http.StatusForbidden, "elevation_required", "elevated session required")
		return session.Session{}, false
	}
	return s, true
}
