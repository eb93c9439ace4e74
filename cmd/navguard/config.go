package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	navguard "github.com/MrEthical07/navGuard"
	"github.com/MrEthical07/navGuard/routes"
)

// ServerConfig is the process configuration, read from NAVGUARD_* variables.
type ServerConfig struct {
	ListenAddr     string            `env:"NAVGUARD_LISTEN_ADDR" envDefault:":8080"`
	RedisAddr      string            `env:"NAVGUARD_REDIS_ADDR"`
	RedisPrefix    string            `env:"NAVGUARD_REDIS_PREFIX" envDefault:"ng"`
	Retention      time.Duration     `env:"NAVGUARD_CREDENTIAL_RETENTION" envDefault:"24h"`
	JWTSecret      string            `env:"NAVGUARD_JWT_SECRET"`
	JWTTTL         time.Duration     `env:"NAVGUARD_JWT_TTL" envDefault:"15m"`
	JWTIssuer      string            `env:"NAVGUARD_JWT_ISSUER" envDefault:"navguard"`
	RoutesFile     string            `env:"NAVGUARD_ROUTES_FILE"`
	Users          map[string]string `env:"NAVGUARD_USERS" envSeparator:"," envKeyValSeparator:":"`
	LogLevel       string            `env:"NAVGUARD_LOG_LEVEL" envDefault:"info"`
	Development    bool              `env:"NAVGUARD_DEV"`
	SecureCookies  bool              `env:"NAVGUARD_SECURE_COOKIES"`
	ClientIdle     time.Duration     `env:"NAVGUARD_CLIENT_IDLE" envDefault:"30m"`
	CheckAuthLimit time.Duration     `env:"NAVGUARD_CHECK_AUTH_TIMEOUT" envDefault:"5s"`
	OTelMetrics    bool              `env:"NAVGUARD_OTEL_METRICS"`
}

func loadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c ServerConfig) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("NAVGUARD_LISTEN_ADDR must not be empty")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("NAVGUARD_JWT_SECRET must be at least 32 bytes")
	}
	if c.JWTTTL <= 0 {
		return errors.New("NAVGUARD_JWT_TTL must be > 0")
	}
	if c.ClientIdle <= 0 {
		return errors.New("NAVGUARD_CLIENT_IDLE must be > 0")
	}
	if c.CheckAuthLimit <= 0 {
		return errors.New("NAVGUARD_CHECK_AUTH_TIMEOUT must be > 0")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("NAVGUARD_LOG_LEVEL: %w", err)
	}
	return nil
}

// GuardConfig maps the process settings onto the engine configuration.
func (c ServerConfig) GuardConfig() navguard.Config {
	cfg := navguard.DefaultConfig()
	cfg.Guard.CheckAuthTimeout = c.CheckAuthLimit
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func (c ServerConfig) routeTable() (*routes.Table, error) {
	if c.RoutesFile == "" {
		return routes.Default(), nil
	}
	return routes.LoadFile(c.RoutesFile)
}

func newLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
