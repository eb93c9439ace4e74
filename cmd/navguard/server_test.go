package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	otelexport "github.com/MrEthical07/navGuard/metrics/export/otel"
	"github.com/MrEthical07/navGuard/middleware"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:     "127.0.0.1:0",
		RedisPrefix:    "ngtest",
		Retention:      time.Hour,
		JWTSecret:      testSecret,
		JWTTTL:         time.Hour,
		JWTIssuer:      "navguard-test",
		Users:          map[string]string{"alice": "wonderland"},
		LogLevel:       "debug",
		ClientIdle:     time.Minute,
		CheckAuthLimit: time.Second,
	}
}

func newTestServer(t *testing.T) (*app, *httptest.Server, *http.Client) {
	t.Helper()
	a, err := newApp(testServerConfig(), nil)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	srv := httptest.NewServer(a.handler)
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return a, srv, client
}

func get(t *testing.T, c *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func login(t *testing.T, c *http.Client, base, user, password string) *http.Response {
	t.Helper()
	body := strings.NewReader(`{"username":"` + user + `","password":"` + password + `"}`)
	resp, err := c.Post(base+"/api/session", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/session: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func TestServeLoginFlow(t *testing.T) {
	_, srv, client := newTestServer(t)

	expectRedirect(t, get(t, client, srv.URL+"/chat"), "/login")

	resp := get(t, client, srv.URL+"/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login page status = %d", resp.StatusCode)
	}

	if resp := login(t, client, srv.URL, "alice", "nope"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", resp.StatusCode)
	}
	if resp := login(t, client, srv.URL, "alice", "wonderland"); resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	resp = get(t, client, srv.URL+"/chat")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status after login = %d, want 200", resp.StatusCode)
	}
	var view pageView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if view.Name != "Chat" || view.View != "main/ChatPage" {
		t.Fatalf("unexpected page: %+v", view)
	}

	expectRedirect(t, get(t, client, srv.URL+"/login"), "/summary-dashboard")

	expectRedirect(t, get(t, client, srv.URL+"/"), "/summary-dashboard")

	if resp := get(t, client, srv.URL+"/api/session"); resp.StatusCode != http.StatusOK {
		t.Fatalf("session status = %d, want 200", resp.StatusCode)
	}
}

func TestServeLogout(t *testing.T) {
	_, srv, client := newTestServer(t)

	get(t, client, srv.URL+"/login")
	if resp := login(t, client, srv.URL, "alice", "wonderland"); resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/session", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", resp.StatusCode)
	}

	resp = get(t, client, srv.URL+"/chat")
	expectRedirect(t, resp, "/login")
	for _, c := range resp.Cookies() {
		if c.Name == middleware.NoticeCookie {
			t.Fatal("logout must not raise a session-expired notice")
		}
	}

	if resp := get(t, client, srv.URL+"/api/session"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("session status after logout = %d, want 401", resp.StatusCode)
	}
}

func TestServeNotFoundAndClientsAreIsolated(t *testing.T) {
	a, srv, client := newTestServer(t)

	get(t, client, srv.URL+"/login")
	login(t, client, srv.URL, "alice", "wonderland")

	resp := get(t, client, srv.URL+"/no/such/page")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown page status = %d, want 404", resp.StatusCode)
	}

	jar, _ := cookiejar.New(nil)
	other := &http.Client{Jar: jar, CheckRedirect: client.CheckRedirect}
	expectRedirect(t, get(t, other, srv.URL+"/chat"), "/login")

	if n := a.registry.Len(); n != 2 {
		t.Fatalf("registry holds %d clients, want 2", n)
	}
}

func TestServeHealthAndMetrics(t *testing.T) {
	_, srv, client := newTestServer(t)

	resp := get(t, client, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	get(t, client, srv.URL+"/chat")

	resp = get(t, client, srv.URL+"/metrics")
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(body), "navguard_navigation_redirect_login_total 1") {
		t.Fatalf("metrics missing redirect counter:\n%s", body)
	}
}

func TestServeOTelMetricsBehindSwitch(t *testing.T) {
	a, _, _ := newTestServer(t)
	if a.otel != nil {
		t.Fatal("otel reader started without NAVGUARD_OTEL_METRICS")
	}

	cfg := testServerConfig()
	cfg.OTelMetrics = true
	withOTel, err := newApp(cfg, nil)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	srv := httptest.NewServer(withOTel.handler)
	t.Cleanup(func() {
		srv.Close()
		withOTel.Close()
	})
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	expectRedirect(t, get(t, client, srv.URL+"/chat"), "/login")

	resp := get(t, client, srv.URL+"/metrics/otel")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("otel status = %d", resp.StatusCode)
	}
	var points []otelexport.Point
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatalf("decode otel metrics: %v", err)
	}
	var got int64 = -1
	for _, p := range points {
		if p.Name == otelexport.NavigationsName && p.Attributes["outcome"] == "redirect_login" {
			got = p.Value
		}
	}
	if got != 1 {
		t.Fatalf("redirect_login navigations = %d, want 1 in %+v", got, points)
	}
}

func TestServerConfigFromEnv(t *testing.T) {
	t.Setenv("NAVGUARD_JWT_SECRET", testSecret)
	t.Setenv("NAVGUARD_USERS", "alice:wonderland,bob:builder")
	t.Setenv("NAVGUARD_JWT_TTL", "30m")

	cfg, err := loadServerConfig()
	if err != nil {
		t.Fatalf("loadServerConfig: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.RedisPrefix != "ng" || cfg.JWTTTL != 30*time.Minute {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Users["bob"] != "builder" || len(cfg.Users) != 2 {
		t.Fatalf("unexpected users: %v", cfg.Users)
	}

	guard := cfg.GuardConfig()
	if guard.Guard.CheckAuthTimeout != 5*time.Second || !guard.Metrics.Enabled || cfg.OTelMetrics {
		t.Fatalf("unexpected guard config: %+v", guard)
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
		want   string
	}{
		{"short secret", func(c *ServerConfig) { c.JWTSecret = "short" }, "NAVGUARD_JWT_SECRET"},
		{"zero ttl", func(c *ServerConfig) { c.JWTTTL = 0 }, "NAVGUARD_JWT_TTL"},
		{"bad level", func(c *ServerConfig) { c.LogLevel = "loud" }, "NAVGUARD_LOG_LEVEL"},
		{"no listen", func(c *ServerConfig) { c.ListenAddr = "" }, "NAVGUARD_LISTEN_ADDR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testServerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
