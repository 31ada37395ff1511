package oteladapters_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries/oteladapters"
	"github.com/AntonStoeckl/eventqueries-go/testutil/helper"
)

// recordingLogger is a log.Logger that keeps every emitted record with its context.
type recordingLogger struct {
	embedded.Logger

	mu       sync.Mutex
	records  []log.Record
	contexts []context.Context
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record.Clone())
	l.contexts = append(l.contexts, ctx)
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

type recordingProvider struct {
	embedded.LoggerProvider

	logger *recordingLogger
}

func (p *recordingProvider) Logger(string, ...log.LoggerOption) log.Logger {
	return p.logger
}

func recordAttributes(record log.Record) map[string]log.Value {
	attrs := make(map[string]log.Value)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	return attrs
}

func newTracer() (trace.Tracer, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return provider.Tracer("eventqueries-test"), exporter
}

func Test_OTelLogger_EmitsTypedAttributes(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.InfoContext(context.Background(), "eventqueries operation: query completed",
		"operation", "min_date",
		"row_count", 1,
		"duration_ms", 0.25,
		"error", errors.New("boom"),
		"dangling",
	)

	// assert
	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, log.SeverityInfo, record.Severity())
	assert.Equal(t, "INFO", record.SeverityText())
	assert.Equal(t, "eventqueries operation: query completed", record.Body().AsString())

	attrs := recordAttributes(record)
	assert.Len(t, attrs, 4)
	assert.Equal(t, "min_date", attrs["operation"].AsString())
	assert.Equal(t, int64(1), attrs["row_count"].AsInt64())
	assert.InDelta(t, 0.25, attrs["duration_ms"].AsFloat64(), 0.0001)
	assert.Equal(t, "boom", attrs["error"].AsString())
}

func Test_OTelLogger_SeverityMapping(t *testing.T) {
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)
	ctx := context.Background()

	logger.DebugContext(ctx, "d")
	logger.InfoContext(ctx, "i")
	logger.WarnContext(ctx, "w")
	logger.ErrorContext(ctx, "e")

	require.Len(t, recorder.records, 4)
	assert.Equal(t, log.SeverityDebug, recorder.records[0].Severity())
	assert.Equal(t, log.SeverityInfo, recorder.records[1].Severity())
	assert.Equal(t, log.SeverityWarn, recorder.records[2].Severity())
	assert.Equal(t, log.SeverityError, recorder.records[3].Severity())
}

func Test_OTelLogger_PassesTheSpanContextThrough(t *testing.T) {
	// setup
	tracer, _ := newTracer()
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// arrange
	ctx, span := tracer.Start(context.Background(), "eventqueries.query")
	defer span.End()

	// act
	logger.DebugContext(ctx, "executed sql for: list_events")

	// assert
	require.Len(t, recorder.contexts, 1)
	emitted := trace.SpanContextFromContext(recorder.contexts[0])
	assert.True(t, emitted.IsValid())
	assert.Equal(t, span.SpanContext().TraceID(), emitted.TraceID())
}

func Test_SlogBridgeLogger(t *testing.T) {
	t.Run("with a provider", func(t *testing.T) {
		recorder := &recordingLogger{}
		logger := oteladapters.NewSlogBridgeLoggerWithProvider("eventqueries", &recordingProvider{logger: recorder})

		logger.WarnContext(context.Background(), "failed to close database rows", "error", "closed")

		require.Len(t, recorder.records, 1)
		assert.Equal(t, log.SeverityWarn, recorder.records[0].Severity())
		assert.Equal(t, "failed to close database rows", recorder.records[0].Body().AsString())
		assert.Equal(t, "closed", recordAttributes(recorder.records[0])["error"].AsString())
	})

	t.Run("with a plain handler", func(t *testing.T) {
		spy := helper.NewLogHandlerSpy(false)
		logger := oteladapters.NewSlogBridgeLoggerWithHandler(spy)

		logger.ErrorContext(context.Background(), "database query execution failed", "operation", "list_events")

		assert.True(t, spy.HasErrorLogWithMessage("database query execution failed").WithAttribute("operation", "list_events").Assert())
	})
}

func Test_TracingCollector_StartAndFinish(t *testing.T) {
	tests := []struct {
		status              string
		expectedCode        codes.Code
		expectedDescription string
	}{
		{status: "success", expectedCode: codes.Ok},
		{status: "error", expectedCode: codes.Error, expectedDescription: "query failed"},
		{status: "timeout", expectedCode: codes.Error, expectedDescription: "query timed out"},
		{status: "something_else", expectedCode: codes.Unset},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			// setup
			tracer, exporter := newTracer()
			collector := oteladapters.NewTracingCollector(tracer)

			// act
			ctx, spanCtx := collector.StartSpan(context.Background(), "eventqueries.query", map[string]string{
				"operation": "list_events",
				"db.system": "sqlite3",
			})
			spanCtx.AddAttribute("extra", "yes")
			collector.FinishSpan(spanCtx, tc.status, map[string]string{"row_count": "3"})

			// assert
			assert.True(t, trace.SpanContextFromContext(ctx).IsValid())

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]

			assert.Equal(t, "eventqueries.query", span.Name)
			assert.Equal(t, trace.SpanKindClient, span.SpanKind)
			assert.Equal(t, tc.expectedCode, span.Status.Code)
			assert.Equal(t, tc.expectedDescription, span.Status.Description)
			assert.Contains(t, span.Attributes, attribute.String("operation", "list_events"))
			assert.Contains(t, span.Attributes, attribute.String("db.system", "sqlite3"))
			assert.Contains(t, span.Attributes, attribute.String("extra", "yes"))
			assert.Contains(t, span.Attributes, attribute.String("row_count", "3"))
		})
	}
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string)            {}
func (foreignSpanContext) AddAttribute(string, string) {}

func Test_TracingCollector_IgnoresForeignSpanContexts(t *testing.T) {
	tracer, exporter := newTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	assert.NotPanics(t, func() {
		collector.FinishSpan(foreignSpanContext{}, "success", nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func Test_MetricsCollector_RecordsAllInstrumentKinds(t *testing.T) {
	// setup
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("eventqueries-test"))
	labels := map[string]string{"operation": "list_events", "status": "success"}

	// act
	collector.RecordDuration("eventqueries_query_duration_seconds", 150*time.Millisecond, labels)
	collector.RecordDurationContext(context.Background(), "eventqueries_query_duration_seconds", 50*time.Millisecond, labels)
	collector.RecordValue("eventqueries_rows_returned", 3, labels)
	collector.IncrementCounter("eventqueries_database_errors_total", map[string]string{"operation": "list_events", "error_type": "database_query"})
	collector.IncrementCounterContext(context.Background(), "eventqueries_database_errors_total", map[string]string{"operation": "list_events", "error_type": "database_query"})

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	durations := findMetric(t, resourceMetrics, "eventqueries_query_duration_seconds").Data.(metricdata.Histogram[float64])
	require.Len(t, durations.DataPoints, 1)
	assert.Equal(t, uint64(2), durations.DataPoints[0].Count)
	assert.InDelta(t, 0.2, durations.DataPoints[0].Sum, 0.001)

	expectedLabels := attribute.NewSet(attribute.String("operation", "list_events"), attribute.String("status", "success"))
	assert.True(t, durations.DataPoints[0].Attributes.Equals(&expectedLabels))

	rows := findMetric(t, resourceMetrics, "eventqueries_rows_returned").Data.(metricdata.Histogram[float64])
	require.Len(t, rows.DataPoints, 1)
	assert.InDelta(t, 3.0, rows.DataPoints[0].Sum, 0.001)

	errorsTotal := findMetric(t, resourceMetrics, "eventqueries_database_errors_total").Data.(metricdata.Sum[int64])
	require.Len(t, errorsTotal.DataPoints, 1)
	assert.Equal(t, int64(2), errorsTotal.DataPoints[0].Value)
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(provider.Meter("eventqueries-test"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("eventqueries_database_errors_total", map[string]string{"operation": "min_date"})
		}()
	}
	wg.Wait()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	errorsTotal := findMetric(t, resourceMetrics, "eventqueries_database_errors_total").Data.(metricdata.Sum[int64])
	require.Len(t, errorsTotal.DataPoints, 1)
	assert.Equal(t, int64(20), errorsTotal.DataPoints[0].Value)
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	t.Fatalf("metric %s not found", name)

	return metricdata.Metrics{}
}
