package navguard

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/navGuard/routes"
)

// Config holds everything the Engine needs besides the route table.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Guard   GuardConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
GUARD CONFIG
====================================
*/

// GuardConfig controls where denied navigations go and how long the guard
// waits for auth state.
type GuardConfig struct {
	// LoginRoute is the name of the route unauthenticated navigations are sent to.
	LoginRoute string
	// LandingPath is where authenticated users leaving a guest-only route land.
	LandingPath string
	// CheckAuthTimeout bounds the CheckAuth call of a not-ready store. Zero waits
	// for as long as the navigation context allows.
	CheckAuthTimeout time.Duration
	// MaxRedirectHops bounds how many redirect records one navigation follows.
	MaxRedirectHops int
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the guard latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration matching the default route table.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Guard: GuardConfig{
			LoginRoute:       routes.NameLogin,
			LandingPath:      routes.DefaultLandingPath,
			CheckAuthTimeout: 5 * time.Second,
			MaxRedirectHops:  4,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Guard.LandingPath = routes.NormalizePath(cfg.Guard.LandingPath)
	return out
}

// Validate checks the config on its own; route-dependent checks happen in
// [Builder.Build].
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Guard.LoginRoute) == "" {
		return errors.New("Guard LoginRoute must be set")
	}
	if !strings.HasPrefix(c.Guard.LandingPath, "/") {
		return errors.New("Guard LandingPath must be an absolute path")
	}
	if c.Guard.CheckAuthTimeout < 0 {
		return errors.New("Guard CheckAuthTimeout must be >= 0")
	}
	if c.Guard.MaxRedirectHops < 1 {
		return errors.New("Guard MaxRedirectHops must be >= 1")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
