package navguard

import (
	"fmt"

	"github.com/MrEthical07/navGuard/internal/audit"
	"github.com/MrEthical07/navGuard/routes"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config    Config
	table     *routes.Table
	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder holding [DefaultConfig] and no route table; Build
// falls back to routes.Default.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRoutes sets the route table the Engine resolves against.
func (b *Builder) WithRoutes(table *routes.Table) *Builder {
	b.table = table
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink audit events are delivered to. Audit must also be
// enabled in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration against the route table and returns a
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	table := b.table
	if table == nil {
		table = routes.Default()
	}

	// -------- LOGIN ROUTE --------
	login, ok := table.ByName(cfg.Guard.LoginRoute)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLoginRouteMissing, cfg.Guard.LoginRoute)
	}
	if login.Meta.RequiresAuth {
		return nil, fmt.Errorf("%w: %q", ErrLoginRouteProtected, login.Name)
	}
	loginPath, err := table.PathFor(login.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("login route %q: %w", login.Name, err)
	}

	// -------- LANDING --------
	if table.Resolve(cfg.Guard.LandingPath).NotFound() {
		return nil, fmt.Errorf("%w: %q", ErrLandingUnroutable, cfg.Guard.LandingPath)
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:    cfg,
		table:     table,
		loginPath: loginPath,
		logger:    logger.Named("navguard"),
		metrics:   NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	b.built = true

	return engine, nil
}
