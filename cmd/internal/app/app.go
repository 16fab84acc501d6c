// Package app wires the FileFly auth runtime: config, logging, storage, HTTP routes and the session sweep.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"filefly/cmd/accounts"
	authapi "filefly/cmd/internal/auth/api"
	"filefly/cmd/internal/auth/ratelimit"
	"filefly/cmd/internal/auth/session"
)

// App is the FileFly server runtime. It owns the credential store, the session
// manager and every resource they borrow.
type App struct {
	cfg Config
	log Logger

	accounts *accounts.Service
	sessions *session.Manager
	auth     *authapi.Handler

	registry    *prometheus.Registry
	httpMetrics *httpMetrics

	// release runs after the account service is closed, in order.
	release []func()
}

// New constructs a fully wired App. Failure to open the account backend is the
// only storage error that stops startup.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend, releaseBackend, err := openBackend(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	a.release = append(a.release, releaseBackend)

	a.accounts, err = accounts.NewService(backend, cfg.Accounts, log)
	if err != nil {
		_ = backend.Close()
		a.runRelease()
		return nil, err
	}
	if _, err := a.accounts.Bootstrap(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.sessions, err = session.NewManager(cfg.Sessions, a.accounts, log,
		session.WithMetrics(session.NewMetrics(a.registry)))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	limiter := a.newLimiter(ctx)
	a.auth, err = authapi.NewHandler(log, cfg.API, a.accounts, a.sessions, authapi.WithLimiter(limiter))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.httpMetrics = newHTTPMetrics(a.registry)
	return a, nil
}

// newLimiter returns the shared Redis limiter when configured, else an in-process one.
// An unreachable Redis is logged, not fatal: the login path fails open.
func (a *App) newLimiter(ctx context.Context) ratelimit.Limiter {
	if a.cfg.Redis.Addr == "" {
		return ratelimit.NewMemory(a.cfg.API.LoginLimit, nil)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Username: a.cfg.Redis.Username,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.release = append(a.release, func() { _ = rdb.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.log.Warn("ratelimit.redis.unreachable", "addr", a.cfg.Redis.Addr, "err", err)
	} else {
		a.log.Info("ratelimit.redis", "addr", a.cfg.Redis.Addr)
	}
	return ratelimit.NewRedis(rdb, a.cfg.API.LoginLimit, a.cfg.Redis.KeyPrefix)
}

// Handler returns the full HTTP stack: routes wrapped in request ids, logging and metrics.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.accounts, a.auth, a.registry)
	return WithRequestID(WithRequestLogging(WithMetrics(mux, a.httpMetrics), a.log))
}

// Run starts the sweep and the HTTP server and blocks until context cancellation
// or a fatal server error. Resources are released before it returns.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.Close() }()

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.HTTP.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.HTTP.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.HTTP.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.HTTP.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.HTTP.MaxHeaderBytes, 1<<20),
	}

	a.sessions.Start(ctx)
	a.log.Info("server.start", "addr", a.cfg.HTTP.Addr, "storage", a.cfg.Storage.Driver)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.HTTP.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// Close stops the sweep and releases storage. It is safe to call more than once.
func (a *App) Close() error {
	if a.sessions != nil {
		a.sessions.Stop()
	}
	var err error
	if a.accounts != nil {
		err = a.accounts.Close()
		a.accounts = nil
	}
	a.runRelease()
	if err != nil {
		a.log.Error("storage.close.fail", "err", err)
	}
	return err
}

func (a *App) runRelease() {
	for _, fn := range a.release {
		if fn != nil {
			fn()
		}
	}
	a.release = nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
