package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/shouni/vision-weaver-kit")

// Metrics はフォールバックと画像生成の計測値です。
// adapters.FallbackRecorder を満たします。
type Metrics struct {
	fallbackCounter    metric.Int64Counter
	generationCounter  metric.Int64Counter
	generationDuration metric.Float64Histogram
}

// NewMetrics は計測器を作成します。
func NewMetrics() (*Metrics, error) {
	fallbackCounter, err := meter.Int64Counter(
		"vision_weaver.fallbacks",
		metric.WithDescription("Number of collaborator calls answered with fallback data"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	generationCounter, err := meter.Int64Counter(
		"vision_weaver.generations",
		metric.WithDescription("Number of image generation requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	generationDuration, err := meter.Float64Histogram(
		"vision_weaver.generation.duration",
		metric.WithDescription("Duration of image generation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		fallbackCounter:    fallbackCounter,
		generationCounter:  generationCounter,
		generationDuration: generationDuration,
	}, nil
}

// RecordFallback はフォールバックの発生を記録します。
func (m *Metrics) RecordFallback(ctx context.Context, collaborator, reason string) {
	m.fallbackCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("collaborator", collaborator),
			attribute.String("reason", reason),
		),
	)
}

// RecordGeneration は画像生成 1 回分の所要時間を記録します。
func (m *Metrics) RecordGeneration(ctx context.Context, backend string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("backend", backend))
	m.generationCounter.Add(ctx, 1, attrs)
	m.generationDuration.Record(ctx, duration.Seconds(), attrs)
}
