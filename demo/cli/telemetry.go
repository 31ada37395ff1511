package cli

import (
	"context"
	"log/slog"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries/oteladapters"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

const instrumentationName = "github.com/AntonStoeckl/eventqueries-go"

// telemetry keeps the spans and metrics of one run in memory so they can be summarized at the end.
type telemetry struct {
	handler        slog.Handler
	spans          *tracetest.InMemoryExporter
	tracerProvider *sdktrace.TracerProvider
	reader         *sdkmetric.ManualReader
	meterProvider  *sdkmetric.MeterProvider
}

func newTelemetry(handler slog.Handler) *telemetry {
	spans := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()

	return &telemetry{
		handler:        handler,
		spans:          spans,
		tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans)),
		reader:         reader,
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

func (t *telemetry) options() []sqlengine.Option {
	return []sqlengine.Option{
		sqlengine.WithTracing(oteladapters.NewTracingCollector(t.tracerProvider.Tracer(instrumentationName))),
		sqlengine.WithMetrics(oteladapters.NewMetricsCollector(t.meterProvider.Meter(instrumentationName))),
		sqlengine.WithContextualLogger(oteladapters.NewSlogBridgeLoggerWithHandler(t.handler)),
	}
}

// summarize logs one record per finished span and one per collected metric.
func (t *telemetry) summarize(ctx context.Context, logger *slog.Logger) {
	for _, span := range t.spans.GetSpans() {
		attrs := []any{
			"span", span.Name,
			"status", span.Status.Code.String(),
			"duration_ms", float64(span.EndTime.Sub(span.StartTime).Microseconds()) / 1000,
		}
		for _, attr := range span.Attributes {
			attrs = append(attrs, string(attr.Key), attr.Value.Emit())
		}

		logger.InfoContext(ctx, "telemetry span", attrs...)
	}

	var collected metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &collected); err != nil {
		logger.WarnContext(ctx, "failed to collect metrics", "error", err.Error())
		return
	}

	for _, scopeMetrics := range collected.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			logger.InfoContext(ctx, "telemetry metric", "metric", m.Name, "data_points", dataPoints(m.Data))
		}
	}
}

func (t *telemetry) shutdown(ctx context.Context) {
	_ = t.tracerProvider.Shutdown(ctx)
	_ = t.meterProvider.Shutdown(ctx)
}

func dataPoints(data metricdata.Aggregation) int {
	switch d := data.(type) {
	case metricdata.Histogram[float64]:
		return len(d.DataPoints)
	case metricdata.Sum[int64]:
		return len(d.DataPoints)
	default:
		return 0
	}
}
