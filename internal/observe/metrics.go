// Package observe provides observability primitives for the dictation
// pipeline: OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// wires a Prometheus exporter so metrics can be scraped via the standard
// /metrics endpoint. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all pipeline metrics.
const meterName = "github.com/quillmed/quillmed"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// StageDuration tracks per-stage pipeline latency. Use with attribute:
	//   attribute.String("stage", ...) — preprocess, transcribe, correct,
	//   format, verify, export.
	StageDuration metric.Float64Histogram

	// PipelineRuns counts completed pipeline runs. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	PipelineRuns metric.Int64Counter

	// Corrections counts vocabulary corrections applied. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("confidence", ...)
	Corrections metric.Int64Counter

	// FormatterFallbacks counts notes that fell back to the rule-based
	// strategy because the LLM backend was unavailable.
	FormatterFallbacks metric.Int64Counter

	// Reinjections counts sentences recovered by the verifier's reinjection
	// pass.
	Reinjections metric.Int64Counter

	// StageErrors counts stage failures. Use with attributes:
	//   attribute.String("stage", ...), attribute.String("kind", ...)
	StageErrors metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Stages
// range from sub-second correction passes to multi-minute transcriptions.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("quillmed.stage.duration",
		metric.WithDescription("Latency of each pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineRuns, err = m.Int64Counter("quillmed.pipeline.runs",
		metric.WithDescription("Total pipeline runs by status."),
	); err != nil {
		return nil, err
	}
	if met.Corrections, err = m.Int64Counter("quillmed.corrections",
		metric.WithDescription("Total vocabulary corrections by kind and confidence."),
	); err != nil {
		return nil, err
	}
	if met.FormatterFallbacks, err = m.Int64Counter("quillmed.formatter.fallbacks",
		metric.WithDescription("Total notes formatted by the rule-based fallback."),
	); err != nil {
		return nil, err
	}
	if met.Reinjections, err = m.Int64Counter("quillmed.verify.reinjections",
		metric.WithDescription("Total sentences recovered by reinjection."),
	); err != nil {
		return nil, err
	}
	if met.StageErrors, err = m.Int64Counter("quillmed.stage.errors",
		metric.WithDescription("Total stage failures by stage and error kind."),
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

// RecordStage records one stage execution: its duration and, when err is
// non-nil, a stage error with the given kind.
func (m *Metrics) RecordStage(ctx context.Context, stage string, elapsed time.Duration, err error, kind string) {
	m.StageDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
	if err != nil {
		m.StageErrors.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("stage", stage),
				attribute.String("kind", kind),
			))
	}
}

// RecordCorrection increments the correction counter with the standard
// attribute set.
func (m *Metrics) RecordCorrection(ctx context.Context, kind, confidence string) {
	m.Corrections.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("confidence", confidence),
		))
}

// RecordPipelineRun increments the run counter with the given status.
func (m *Metrics) RecordPipelineRun(ctx context.Context, status string) {
	m.PipelineRuns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)))
}
