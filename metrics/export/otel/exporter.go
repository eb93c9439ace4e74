package otel

import (
	"context"
	"errors"
	"fmt"

	navguard "github.com/MrEthical07/navGuard"
	"github.com/MrEthical07/navGuard/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Instrument names. Outcomes and results are attributes rather than separate
// instruments.
const (
	NavigationsName    = "navguard.navigations"
	CheckAuthName      = "navguard.check_auth"
	SessionExpiredName = "navguard.session_expired"
	NotFoundName       = "navguard.route_not_found"
	RedirectHopsName   = "navguard.redirect_record_hops"
	LatencyBucketName  = "navguard.guard.latency.bucket"
	LatencyCountName   = "navguard.guard.latency.count"
	AuditDroppedName   = "navguard.audit.dropped"
)

// Attribute keys.
const (
	OutcomeKey = attribute.Key("outcome")
	ResultKey  = attribute.Key("result")
	LeKey      = attribute.Key("le")
)

var outcomeMetrics = []struct {
	outcome navguard.Outcome
	id      navguard.MetricID
}{
	{navguard.OutcomeAllow, navguard.MetricNavigationAllowed},
	{navguard.OutcomeRedirectLogin, navguard.MetricNavigationRedirectLogin},
	{navguard.OutcomeRedirectLanding, navguard.MetricNavigationRedirectLanding},
}

type metricsSource interface {
	MetricsSnapshot() navguard.MetricsSnapshot
	AuditDropped() uint64
}

// OTelExporter publishes Engine metrics as OTel observable instruments read
// from one snapshot per collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	navigations    metric.Int64ObservableCounter
	checkAuth      metric.Int64ObservableCounter
	sessionExpired metric.Int64ObservableCounter
	notFound       metric.Int64ObservableCounter
	redirectHops   metric.Int64ObservableCounter
	latencyBucket  metric.Int64ObservableGauge
	latencyCount   metric.Int64ObservableCounter
	auditDropped   metric.Int64ObservableCounter

	outcomeAttrs []metric.ObserveOption
	okAttr       metric.ObserveOption
	failedAttr   metric.ObserveOption
	leAttrs      [internaldefs.BucketCount]metric.ObserveOption
}

// NewOTelExporter registers instruments on meter that read from engine.
func NewOTelExporter(meter metric.Meter, engine *navguard.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter over any metrics source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:     source,
		okAttr:     metric.WithAttributes(ResultKey.String("ok")),
		failedAttr: metric.WithAttributes(ResultKey.String("failed")),
	}
	for _, om := range outcomeMetrics {
		e.outcomeAttrs = append(e.outcomeAttrs, metric.WithAttributes(OutcomeKey.String(om.outcome.String())))
	}
	for i, label := range internaldefs.BoundLabels() {
		e.leAttrs[i] = metric.WithAttributes(LeKey.String(label))
	}

	counters := []struct {
		dst  *metric.Int64ObservableCounter
		name string
		desc string
		unit string
	}{
		{&e.navigations, NavigationsName, "Guarded navigations by outcome.", "{navigation}"},
		{&e.checkAuth, CheckAuthName, "CheckAuth calls made by the guard by result.", "{call}"},
		{&e.sessionExpired, SessionExpiredName, "HandleSessionExpired calls by result.", "{call}"},
		{&e.notFound, NotFoundName, "Navigations resolved to the not-found route.", "{navigation}"},
		{&e.redirectHops, RedirectHopsName, "Redirect records followed before guarding.", "{hop}"},
		{&e.latencyCount, LatencyCountName, "Navigations observed by the latency histogram.", "{navigation}"},
		{&e.auditDropped, AuditDroppedName, internaldefs.AuditDroppedHelp, "{event}"},
	}

	observables := make([]metric.Observable, 0, len(counters)+1)
	for _, c := range counters {
		ins, err := meter.Int64ObservableCounter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", c.name, err)
		}
		*c.dst = ins
		observables = append(observables, ins)
	}

	bucket, err := meter.Int64ObservableGauge(LatencyBucketName,
		metric.WithDescription("Cumulative guard latency bucket counts, labelled by upper bound in seconds."),
		metric.WithUnit("{navigation}"))
	if err != nil {
		return nil, fmt.Errorf("create latency bucket gauge: %w", err)
	}
	e.latencyBucket = bucket
	observables = append(observables, bucket)

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for i, om := range outcomeMetrics {
		o.ObserveInt64(e.navigations, int64(snap.Counters[om.id]), e.outcomeAttrs[i])
	}
	e.observeResult(o, e.checkAuth, snap.Counters[navguard.MetricCheckAuthRun], snap.Counters[navguard.MetricCheckAuthFailure])
	e.observeResult(o, e.sessionExpired, snap.Counters[navguard.MetricSessionExpired], snap.Counters[navguard.MetricSessionExpiredFailure])
	o.ObserveInt64(e.notFound, int64(snap.Counters[navguard.MetricRouteNotFound]))
	o.ObserveInt64(e.redirectHops, int64(snap.Counters[navguard.MetricRedirectRecordHop]))

	if raw, ok := snap.Histograms[navguard.MetricGuardLatency]; ok {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, v := range cumulative {
			o.ObserveInt64(e.latencyBucket, int64(v), e.leAttrs[i])
		}
		o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// observeResult splits a total and its failures into ok/failed series.
func (e *OTelExporter) observeResult(o metric.Observer, ins metric.Int64ObservableCounter, total, failed uint64) {
	if failed > total {
		failed = total
	}
	o.ObserveInt64(ins, int64(total-failed), e.okAttr)
	o.ObserveInt64(ins, int64(failed), e.failedAttr)
}

// Close unregisters the callback; instruments stop reporting.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
