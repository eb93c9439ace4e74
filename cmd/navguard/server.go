package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	navguard "github.com/MrEthical07/navGuard"
	"github.com/MrEthical07/navGuard/authstore"
	"github.com/MrEthical07/navGuard/jwt"
	otelexport "github.com/MrEthical07/navGuard/metrics/export/otel"
	promexport "github.com/MrEthical07/navGuard/metrics/export/prometheus"
	"github.com/MrEthical07/navGuard/middleware"
	"github.com/MrEthical07/navGuard/session"
)

// app is the wired server: engine, per-client stores, and the HTTP handler.
type app struct {
	cfg      ServerConfig
	logger   *zap.Logger
	engine   *navguard.Engine
	registry *authstore.Registry
	sessions *session.Store
	tokens   *jwt.Manager
	handler  http.Handler
	otel     *sdkmetric.ManualReader
	closers  []func()
}

func newApp(cfg ServerConfig, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{cfg: cfg, logger: logger}

	client, err := a.redisClient()
	if err != nil {
		return nil, err
	}
	a.sessions = session.NewStore(client, cfg.RedisPrefix, cfg.Retention)

	table, err := cfg.routeTable()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine, err = navguard.New().
		WithConfig(cfg.GuardConfig()).
		WithRoutes(table).
		WithLogger(logger).
		Build()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	a.closers = append(a.closers, a.engine.Close)

	if cfg.OTelMetrics {
		if err := a.startOTel(); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.tokens, err = jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWTTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(cfg.JWTSecret),
		Issuer:        cfg.JWTIssuer,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build token manager: %w", err)
	}

	loginRoute := a.engine.Config().Guard.LoginRoute
	storeLogger := logger.Named("authstore")
	a.registry = authstore.NewRegistry(func(clientID string) (*authstore.Store, error) {
		return authstore.New(a.sessions.For(clientID), a.tokens,
			authstore.WithClientID(clientID),
			authstore.WithLoginRoute(loginRoute),
			authstore.WithNotifier(middleware.FlashNotifier{}),
			authstore.WithLogger(storeLogger),
		)
	})

	a.handler = a.routes()
	return a, nil
}

func (a *app) redisClient() (redis.UniversalClient, error) {
	addr := a.cfg.RedisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start embedded redis: %w", err)
		}
		a.closers = append(a.closers, mr.Close)
		addr = mr.Addr()
		a.logger.Info("using embedded redis", zap.String("addr", addr))
	} else {
		a.logger.Info("using redis", zap.String("addr", addr))
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	a.closers = append(a.closers, func() { _ = client.Close() })
	return client, nil
}

// startOTel binds the engine to an OTel meter read on demand by /metrics/otel.
func (a *app) startOTel() error {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exp, err := otelexport.NewOTelExporter(provider.Meter("github.com/MrEthical07/navGuard"), a.engine)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return fmt.Errorf("build otel exporter: %w", err)
	}
	a.otel = reader
	a.closers = append(a.closers, func() {
		_ = exp.Close()
		_ = provider.Shutdown(context.Background())
	})
	return nil
}

// Close releases the engine, Redis client, and embedded Redis, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) routes() http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", promexport.NewPrometheusExporter(a.engine).Handler()).Methods(http.MethodGet)
	if a.otel != nil {
		r.Handle("/metrics/otel", otelexport.Handler(a.otel)).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", a.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/session", middleware.WithStore(a.registry)(http.HandlerFunc(a.handleLogin))).Methods(http.MethodPost)
	api.Handle("/session", middleware.WithStore(a.registry)(http.HandlerFunc(a.handleLogout))).Methods(http.MethodDelete)
	api.Handle("/session", middleware.RequireSession(a.registry, middleware.WithLogger(a.logger))(http.HandlerFunc(a.handleSession))).Methods(http.MethodGet)

	r.PathPrefix("/").HandlerFunc(a.handlePage).Methods(http.MethodGet, http.MethodHead)

	guard := middleware.Guard(a.engine, a.registry,
		middleware.WithLogger(a.logger),
		middleware.WithClientCookie(middleware.DefaultClientCookie, 0, a.cfg.SecureCookies),
		middleware.WithSkipPrefixes("/api/", "/metrics", "/healthz"),
	)
	return guard(r)
}

// pageView is the descriptor the SPA shell renders.
type pageView struct {
	Name           string            `json:"name"`
	Path           string            `json:"path"`
	View           string            `json:"view,omitempty"`
	Lazy           bool              `json:"lazy,omitempty"`
	TitleKey       string            `json:"title_key,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
	RedirectedFrom string            `json:"redirected_from,omitempty"`
	NotFound       bool              `json:"not_found,omitempty"`
	SessionExpired bool              `json:"session_expired,omitempty"`
}

func (a *app) handlePage(w http.ResponseWriter, r *http.Request) {
	d, ok := middleware.DecisionFromContext(r.Context())
	if !ok {
		http.Error(w, "navigation guard unavailable", http.StatusServiceUnavailable)
		return
	}

	rec := d.Target.Record
	view := pageView{
		Name:           rec.Name,
		Path:           d.Target.Path,
		View:           rec.Component.View,
		Lazy:           rec.Component.Lazy,
		TitleKey:       rec.Meta.TitleKey,
		Params:         d.Target.Params,
		RedirectedFrom: d.RedirectedFrom,
		NotFound:       d.Target.NotFound(),
		SessionExpired: middleware.ConsumeNotice(w, r),
	}

	status := http.StatusOK
	if view.NotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, view)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionView struct {
	LoggedIn  bool      `json:"logged_in"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.StoreFromContext(r.Context())
	if !ok {
		http.Error(w, "auth store unavailable", http.StatusServiceUnavailable)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !a.checkPassword(req.Username, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	clientID := middleware.ClientIDFromContext(r.Context())
	token, err := a.tokens.CreateAccess(req.Username, clientID)
	if err != nil {
		a.logger.Error("issue token failed", zap.String("client_id", clientID), zap.Error(err))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if err := store.Login(r.Context(), token); err != nil {
		a.logger.Error("login failed", zap.String("client_id", clientID), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrRedisUnavailable) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "login failed", status)
		return
	}

	a.logger.Info("login", zap.String("client_id", clientID), zap.String("user", req.Username))
	writeJSON(w, http.StatusOK, sessionView{LoggedIn: true, ExpiresAt: time.Now().Add(a.tokens.AccessTTL()).UTC()})
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.StoreFromContext(r.Context())
	if !ok {
		http.Error(w, "auth store unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := store.Logout(r.Context()); err != nil {
		a.logger.Warn("logout: clear credentials failed",
			zap.String("client_id", middleware.ClientIDFromContext(r.Context())),
			zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionView{LoggedIn: true})
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	rtt, err := a.sessions.Ping(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"redis_rtt_ms":  rtt.Milliseconds(),
		"clients":       a.registry.Len(),
		"audit_dropped": a.engine.AuditDropped(),
	})
}

func (a *app) checkPassword(user, password string) bool {
	want, ok := a.cfg.Users[user]
	if !ok || user == "" || password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(want)) == 1
}

// sweep drops idle client stores until ctx ends.
func (a *app) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.registry.Sweep(a.cfg.ClientIdle); n > 0 {
				a.logger.Debug("swept idle clients", zap.Int("removed", n))
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
