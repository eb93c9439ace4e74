package internaldefs

import (
	"strconv"

	navguard "github.com/MrEthical07/navGuard"
)

// BucketCount is the number of latency buckets, +Inf included.
const BucketCount = len(navguard.HistogramBounds) + 1

// CounterDef names one exported counter.
type CounterDef struct {
	ID   navguard.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   navguard.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: navguard.MetricNavigationAllowed, Name: "navguard_navigation_allowed_total", Help: "Navigations that proceeded to their target."},
	{ID: navguard.MetricNavigationRedirectLogin, Name: "navguard_navigation_redirect_login_total", Help: "Navigations redirected to the login route."},
	{ID: navguard.MetricNavigationRedirectLanding, Name: "navguard_navigation_redirect_landing_total", Help: "Guest-only navigations redirected to the landing path."},
	{ID: navguard.MetricCheckAuthRun, Name: "navguard_check_auth_total", Help: "CheckAuth calls made by the guard."},
	{ID: navguard.MetricCheckAuthFailure, Name: "navguard_check_auth_failure_total", Help: "CheckAuth calls that failed, timed out, or panicked."},
	{ID: navguard.MetricSessionExpired, Name: "navguard_session_expired_total", Help: "HandleSessionExpired calls."},
	{ID: navguard.MetricSessionExpiredFailure, Name: "navguard_session_expired_failure_total", Help: "HandleSessionExpired calls that returned an error."},
	{ID: navguard.MetricRouteNotFound, Name: "navguard_route_not_found_total", Help: "Navigations resolved to the not-found route."},
	{ID: navguard.MetricRedirectRecordHop, Name: "navguard_redirect_record_hops_total", Help: "Redirect records followed before guarding."},
}

var HistogramDefs = []HistogramDef{
	{ID: navguard.MetricGuardLatency, Name: "navguard_guard_latency_seconds", Help: "Whole-navigation guard latency."},
}

// AuditDroppedName and AuditDroppedHelp describe the audit backpressure counter.
const (
	AuditDroppedName = "navguard_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(navguard.HistogramBounds))
	for i, d := range navguard.HistogramBounds {
		out[i] = d.Seconds()
	}
	return out
}

// BoundLabels returns "le" label values for each bucket ("0.005" ... "+Inf").
func BoundLabels() []string {
	out := make([]string, 0, BucketCount)
	for _, s := range UpperBounds() {
		out = append(out, strconv.FormatFloat(s, 'f', -1, 64))
	}
	return append(out, "+Inf")
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
