// Package otel publishes navguard Engine metrics through the OpenTelemetry
// metric API.
//
// [NewOTelExporter] registers observable instruments fed by one callback that
// reads a single MetricsSnapshot per collection cycle:
//
//   - navguard.navigations, labelled by "outcome"
//   - navguard.check_auth and navguard.session_expired, labelled by "result"
//   - navguard.guard.latency.bucket, one cumulative point per "le" bound
//
// [Handler] serves a ManualReader collection as JSON for setups without an
// OTLP collector.
//
// The package does not own the MeterProvider; callers supply the Meter and
// shut the provider down.
package otel
