package navguard

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/navGuard/internal/audit"
	internalflows "github.com/MrEthical07/navGuard/internal/flows"
	"github.com/MrEthical07/navGuard/routes"
	"go.uber.org/zap"
)

// Engine runs the navigation guard over a route table.
//
// Engine instances are configured through [Builder] and then treated as
// immutable; every method is safe for concurrent use.
type Engine struct {
	config    Config
	table     *routes.Table
	loginPath string
	logger    *zap.Logger
	audit     *audit.Dispatcher
	metrics   *Metrics
}

// Close drains the audit dispatcher. Navigations after Close still run but
// emit no audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events lost to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the Engine counters. It is empty when
// metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Routes returns the route table the Engine resolves against.
func (e *Engine) Routes() *routes.Table {
	if e == nil {
		return nil
	}
	return e.table
}

// Config returns a copy of the Engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// LoginPath is the path unauthenticated navigations are redirected to.
func (e *Engine) LoginPath() string {
	if e == nil {
		return ""
	}
	return e.loginPath
}

// Resolve returns the route path resolves to, following redirect records.
func (e *Engine) Resolve(path string) routes.Match {
	if e == nil || e.table == nil {
		return routes.Match{Path: routes.NormalizePath(path)}
	}
	m, _, _ := e.resolveTarget(path)
	return m
}

// Decide is the pure guard decision for record under state. It performs no
// I/O and ignores AuthReady; callers holding a not-ready state should use
// [Engine.Navigate].
func Decide(record routes.Record, state AuthState) Outcome {
	return outcomeFromFlow(internalflows.Decide(flowTarget(record), flowSnapshot(state)))
}

// Navigate guards one navigation from from to to. It makes sure store is
// ready, decides, runs HandleSessionExpired for denied navigations, and
// reports where the client ends up. A failing CheckAuth never surfaces as an
// error: the navigation is decided as logged out and the failure is recorded
// in the Decision.
func (e *Engine) Navigate(ctx context.Context, store AuthStore, to, from string) (Decision, error) {
	if e == nil || e.table == nil {
		return Decision{}, ErrEngineNotReady
	}
	if store == nil {
		return Decision{}, ErrNilAuthStore
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()

	target, redirectedFrom, hops := e.resolveTarget(to)
	d := Decision{
		Target:         target,
		RedirectedFrom: redirectedFrom,
	}
	if from != "" {
		src := e.table.Resolve(from)
		d.Source = &src
	}
	for i := 0; i < hops; i++ {
		e.metricInc(MetricRedirectRecordHop)
	}
	if target.NotFound() {
		e.metricInc(MetricRouteNotFound)
	}

	res := internalflows.RunNavigate(ctx, flowTarget(target.Record), internalflows.NavigateDeps{
		Snapshot: func() internalflows.AuthSnapshot {
			return flowSnapshot(store.Snapshot())
		},
		CheckAuth:            store.CheckAuth,
		HandleSessionExpired: store.HandleSessionExpired,
		CheckAuthTimeout:     e.config.Guard.CheckAuthTimeout,
	})

	d.Outcome = outcomeFromFlow(res.Outcome)
	d.CheckedAuth = res.CheckedAuth
	d.CheckAuthErr = res.CheckAuthErr
	d.SessionExpired = res.SessionExpired
	d.ExpireErr = res.ExpireErr

	switch d.Outcome {
	case OutcomeRedirectLogin:
		d.Destination = e.loginPath
	case OutcomeRedirectLanding:
		d.Destination = e.config.Guard.LandingPath
	default:
		d.Destination = target.Path
	}

	e.record(ctx, d)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricGuardLatency, time.Since(start))
	}

	return d, nil
}

// BeforeEach adapts the Engine to a before-each router hook over store. The
// returned Hook calls next exactly once: with the zero Next to continue, or
// with the redirect path. A nil Engine or store aborts the navigation.
func (e *Engine) BeforeEach(store AuthStore) Hook {
	return func(ctx context.Context, to, from string, next NextFunc) {
		next = onceNext(next)

		d, err := e.Navigate(ctx, store, to, from)
		if err != nil {
			next(Next{Abort: true})
			return
		}
		if d.Redirected() {
			next(Next{Path: d.Destination})
			return
		}
		next(Next{})
	}
}

func onceNext(next NextFunc) NextFunc {
	var called atomic.Bool
	return func(n Next) {
		if next == nil || !called.CompareAndSwap(false, true) {
			return
		}
		next(n)
	}
}

// resolveTarget resolves path and follows redirect records. Redirect records
// are never guarded themselves; their target is.
func (e *Engine) resolveTarget(path string) (routes.Match, string, int) {
	m := e.table.Resolve(path)
	if !m.Record.IsRedirect() {
		return m, "", 0
	}

	requested := m.Path
	hops := 0
	for m.Record.IsRedirect() {
		if hops >= e.config.Guard.MaxRedirectHops {
			e.logger.Warn("redirect hop limit reached",
				zap.String("path", requested),
				zap.Int("hops", hops))
			return routes.Match{Record: e.table.NotFound(), Path: requested, Params: map[string]string{}}, requested, hops
		}
		m = e.table.Resolve(m.Record.Redirect)
		hops++
	}
	return m, requested, hops
}

func flowTarget(r routes.Record) internalflows.NavigateTarget {
	return internalflows.NavigateTarget{
		Name:         r.Name,
		RequiresAuth: r.Meta.RequiresAuth,
		GuestOnly:    r.Meta.GuestOnly,
	}
}

func flowSnapshot(s AuthState) internalflows.AuthSnapshot {
	return internalflows.AuthSnapshot{
		Ready:      s.AuthReady,
		LoggedIn:   s.IsLoggedIn,
		TokenValid: s.IsTokenValid,
	}
}

func outcomeFromFlow(o internalflows.NavigateOutcome) Outcome {
	switch o {
	case internalflows.NavigateRedirectLogin:
		return OutcomeRedirectLogin
	case internalflows.NavigateRedirectLanding:
		return OutcomeRedirectLanding
	default:
		return OutcomeAllow
	}
}
