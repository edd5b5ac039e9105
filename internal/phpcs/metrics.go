package phpcs

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/lucasnoah/phpcslint/internal/phpcs"

// Metrics records spans and instruments for lint runs. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
	runs     metric.Int64Counter
	issues   metric.Int64Counter
}

// NewMetrics creates the lint instruments on mp and a tracer on tp.
func NewMetrics(mp metric.MeterProvider, tp trace.TracerProvider) (*Metrics, error) {
	meter := mp.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"phpcs_lint_duration_seconds",
		metric.WithDescription("Duration of phpcs lint runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter(
		"phpcs_lint_total",
		metric.WithDescription("Total number of phpcs lint runs by outcome"),
	)
	if err != nil {
		return nil, err
	}

	issues, err := meter.Int64Counter(
		"phpcs_issues_total",
		metric.WithDescription("Issues reported by phpcs, by output bucket"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		tracer:   tp.Tracer(instrumentationName),
		duration: duration,
		runs:     runs,
		issues:   issues,
	}, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns Metrics bound to the global otel providers, or nil
// if the instruments could not be created.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider(), otel.GetTracerProvider())
		if err == nil {
			defaultMetrics = m
		}
	})
	return defaultMetrics
}

func (m *Metrics) startSpan(ctx context.Context, file string) (context.Context, trace.Span) {
	if m == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return m.tracer.Start(ctx, "phpcs.Lint",
		trace.WithAttributes(attribute.String("phpcs.file", file)),
	)
}

func (m *Metrics) record(ctx context.Context, span trace.Span, d time.Duration, b *Buckets, err error) {
	if m == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = KindName(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.duration.Record(ctx, d.Seconds(), attrs)
	m.runs.Add(ctx, 1, attrs)

	if b == nil {
		return
	}
	for _, sev := range Severities {
		n := len(b.Get(sev))
		span.SetAttributes(attribute.Int("phpcs.issues."+sev.Key(), n))
		if n > 0 {
			m.issues.Add(ctx, int64(n), metric.WithAttributes(attribute.String("bucket", sev.Key())))
		}
	}
}
