// Package metrics defines the sinks that observe scheduling operations.
// Sinks like PromSink and InfluxSink (infra/metrics) record fill, swap,
// substitution and publish outcomes and can be combined with NewMultiSink.
// NewMetricsSink returns a MultiSink automatically when several sinks are
// configured. Events reach the sinks through the event collector fed by the
// internal event bus.
package metrics
