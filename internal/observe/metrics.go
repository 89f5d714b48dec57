// Package observe provides application-wide observability primitives for
// Vocalith: OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Vocalith metrics.
const meterName = "github.com/MrWong99/vocalith"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// RecognizeDuration tracks offline utterance transcription latency.
	// Use with attribute.String("engine", ...).
	RecognizeDuration metric.Float64Histogram

	// UtteranceDuration tracks the audio length of flushed utterances.
	UtteranceDuration metric.Float64Histogram

	// --- Counters ---

	// Utterances counts processed utterances. Use with attributes:
	//   attribute.String("engine", ...), attribute.String("status", ...)
	Utterances metric.Int64Counter

	// Actions counts detected voice actions. Use with attribute:
	//   attribute.String("action", ...)
	Actions metric.Int64Counter

	// DroppedChunks counts audio chunks discarded under backpressure.
	DroppedChunks metric.Int64Counter

	// --- Error counters ---

	// EngineErrors counts recognition failures. Use with attribute:
	//   attribute.String("engine", ...)
	EngineErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live dictation sessions.
	ActiveSessions metric.Int64UpDownCounter

	// AudioLevel tracks the most recent normalized input level.
	AudioLevel metric.Float64Gauge
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.RecognizeDuration, err = m.Float64Histogram("vocalith.recognize.duration",
		metric.WithDescription("Latency of offline utterance transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.UtteranceDuration, err = m.Float64Histogram("vocalith.utterance.duration",
		metric.WithDescription("Audio length of flushed utterances."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Utterances, err = m.Int64Counter("vocalith.utterances",
		metric.WithDescription("Total processed utterances by engine and status."),
	); err != nil {
		return nil, err
	}
	if met.Actions, err = m.Int64Counter("vocalith.actions",
		metric.WithDescription("Total detected voice actions by action name."),
	); err != nil {
		return nil, err
	}
	if met.DroppedChunks, err = m.Int64Counter("vocalith.audio.dropped_chunks",
		metric.WithDescription("Total audio chunks discarded under backpressure."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.EngineErrors, err = m.Int64Counter("vocalith.engine.errors",
		metric.WithDescription("Total recognition failures by engine."),
	); err != nil {
		return nil, err
	}

	// Gauges.
	if met.ActiveSessions, err = m.Int64UpDownCounter("vocalith.active_sessions",
		metric.WithDescription("Number of live dictation sessions."),
	); err != nil {
		return nil, err
	}
	if met.AudioLevel, err = m.Float64Gauge("vocalith.audio.level",
		metric.WithDescription("Most recent normalized input level (0-100)."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordUtterance records a processed utterance with its transcription
// latency and outcome.
func (m *Metrics) RecordUtterance(ctx context.Context, engine, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("status", status),
	)
	m.Utterances.Add(ctx, 1, attrs)
	m.RecognizeDuration.Record(ctx, seconds, attrs)
}

// RecordAction records a detected voice action.
func (m *Metrics) RecordAction(ctx context.Context, action string) {
	m.Actions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("action", action)),
	)
}

// RecordEngineError records a recognition failure.
func (m *Metrics) RecordEngineError(ctx context.Context, engine string) {
	m.EngineErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}
