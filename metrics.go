package navguard

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one Engine counter or histogram.
type MetricID uint16

const (
	// MetricNavigationAllowed counts navigations that proceeded to their target.
	MetricNavigationAllowed MetricID = iota
	// MetricNavigationRedirectLogin counts navigations sent to the login route.
	MetricNavigationRedirectLogin
	// MetricNavigationRedirectLanding counts guest-only navigations sent to the landing path.
	MetricNavigationRedirectLanding
	// MetricCheckAuthRun counts CheckAuth calls made by the guard.
	MetricCheckAuthRun
	// MetricCheckAuthFailure counts CheckAuth calls that failed, timed out, or panicked.
	MetricCheckAuthFailure
	// MetricSessionExpired counts HandleSessionExpired calls.
	MetricSessionExpired
	// MetricSessionExpiredFailure counts HandleSessionExpired calls that returned an error.
	MetricSessionExpiredFailure
	// MetricRouteNotFound counts navigations that resolved to the not-found record.
	MetricRouteNotFound
	// MetricRedirectRecordHop counts redirect records followed before guarding.
	MetricRedirectRecordHop
	// MetricGuardLatency is the histogram of whole-navigation latency.
	MetricGuardLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricNavigationAllowed:         "navigation_allowed",
	MetricNavigationRedirectLogin:   "navigation_redirect_login",
	MetricNavigationRedirectLanding: "navigation_redirect_landing",
	MetricCheckAuthRun:              "check_auth_run",
	MetricCheckAuthFailure:          "check_auth_failure",
	MetricSessionExpired:            "session_expired",
	MetricSessionExpiredFailure:     "session_expired_failure",
	MetricRouteNotFound:             "route_not_found",
	MetricRedirectRecordHop:         "redirect_record_hop",
	MetricGuardLatency:              "guard_latency",
}

// String returns the snake_case name exporters publish.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricIDs lists every defined metric in declaration order.
func MetricIDs() []MetricID {
	ids := make([]MetricID, 0, int(metricIDCount))
	for id := MetricID(0); id < metricIDCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// HistogramBounds are the inclusive upper bounds of the first seven latency
// buckets; the eighth is +Inf.
var HistogramBounds = [histBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the guard latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics]. Histogram slices hold
// per-bucket counts, not cumulative ones.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id. It is a no-op when metrics are disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of id. Only MetricGuardLatency has one.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricGuardLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricGuardLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricGuardLatency].buckets[i])
		}
		s.Histograms[MetricGuardLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
