package sqlengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
)

const (
	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgDBQueryFailed    = "database query execution failed"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgIterateFailed    = "failed while iterating database rows"
	logMsgQueryCompleted   = "query completed"
	logMsgPingFailed       = "database ping failed"
	logMsgPingSucceeded    = "database ping succeeded"
	logMsgSQLExecuted      = "executed sql for: "
	logMsgOperation        = "eventqueries operation: "
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrArgs            = "args"
	logAttrOperation       = "operation"
	logAttrRowCount        = "row_count"
	logAttrDurationMS      = "duration_ms"

	metricQueryDuration  = "eventqueries_query_duration_seconds"
	metricRowsReturned   = "eventqueries_rows_returned"
	metricDatabaseErrors = "eventqueries_database_errors_total"

	spanNameQuery      = "eventqueries.query"
	spanAttrOperation  = "operation"
	spanAttrDialect    = "db.system"
	spanAttrRowCount   = "row_count"
	spanAttrDurationMS = "duration_ms"
	spanAttrErrorType  = "error_type"

	statusSuccess = "success"
	statusError   = "error"
	statusTimeout = "timeout"

	errorTypeBuildQuery    = "build_query"
	errorTypeDatabaseQuery = "database_query"
	errorTypeConnection    = "connection"
	errorTypeTimeout       = "timeout"
	errorTypeRowScan       = "row_scan"
)

// logDebug, logInfo, logWarn and logErrorMsg route a record to the contextual logger if configured, otherwise to the plain logger.
func (c Context) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case c.contextualLogger != nil:
		c.contextualLogger.DebugContext(ctx, msg, args...)
	case c.logger != nil:
		c.logger.Debug(msg, args...)
	}
}

func (c Context) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case c.contextualLogger != nil:
		c.contextualLogger.InfoContext(ctx, msg, args...)
	case c.logger != nil:
		c.logger.Info(msg, args...)
	}
}

func (c Context) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case c.contextualLogger != nil:
		c.contextualLogger.WarnContext(ctx, msg, args...)
	case c.logger != nil:
		c.logger.Warn(msg, args...)
	}
}

func (c Context) logErrorMsg(ctx context.Context, msg string, args ...any) {
	switch {
	case c.contextualLogger != nil:
		c.contextualLogger.ErrorContext(ctx, msg, args...)
	case c.logger != nil:
		c.logger.Error(msg, args...)
	}
}

// logQueryWithDuration logs an executed statement with its execution time at debug level.
func (c Context) logQueryWithDuration(ctx context.Context, stmt statement, operation string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, stmt.sql}
	if len(stmt.args) > 0 {
		args = append(args, logAttrArgs, stmt.args)
	}

	c.logDebug(ctx, logMsgSQLExecuted+operation, args...)
}

// logOperation logs operational information at info level.
func (c Context) logOperation(ctx context.Context, action string, args ...any) {
	c.logInfo(ctx, logMsgOperation+action, args...)
}

// logError logs error information at error level.
func (c Context) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)
	c.logErrorMsg(ctx, message, allArgs...)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", toMilliseconds(d))
}

// recordErrorMetrics counts a database error, using the context-aware method if the collector has one.
func (c Context) recordErrorMetrics(ctx context.Context, operation, errorType string) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errorType,
	}

	if contextual, ok := c.metricsCollector.(eventqueries.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
		return
	}

	c.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

func (c Context) recordDurationMetrics(ctx context.Context, duration time.Duration, operation, status string) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextual, ok := c.metricsCollector.(eventqueries.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricQueryDuration, duration, labels)
		return
	}

	c.metricsCollector.RecordDuration(metricQueryDuration, duration, labels)
}

func (c Context) recordRowsMetrics(ctx context.Context, rowCount int, operation string) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusSuccess,
	}

	if contextual, ok := c.metricsCollector.(eventqueries.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metricRowsReturned, float64(rowCount), labels)
		return
	}

	c.metricsCollector.RecordValue(metricRowsReturned, float64(rowCount), labels)
}

// queryObserver bundles the span and the metrics of one query operation.
type queryObserver struct {
	c         Context
	ctx       context.Context
	operation string
	span      eventqueries.SpanContext
}

// observeQuery starts a span for the operation if tracing is configured.
// The returned context carries the span and must be used for the statement.
func (c Context) observeQuery(ctx context.Context, operation string) (*queryObserver, context.Context) {
	var span eventqueries.SpanContext

	if c.tracingCollector != nil {
		ctx, span = c.tracingCollector.StartSpan(ctx, spanNameQuery, map[string]string{
			spanAttrOperation: operation,
			spanAttrDialect:   c.dialect,
		})
	}

	return &queryObserver{c: c, ctx: ctx, operation: operation, span: span}, ctx
}

func (o *queryObserver) success(rowCount int, duration time.Duration) {
	o.c.recordDurationMetrics(o.ctx, duration, o.operation, statusSuccess)
	o.c.recordRowsMetrics(o.ctx, rowCount, o.operation)

	if o.span == nil {
		return
	}

	o.span.SetStatus(statusSuccess)
	o.c.tracingCollector.FinishSpan(o.span, statusSuccess, map[string]string{
		spanAttrRowCount:   fmt.Sprintf("%d", rowCount),
		spanAttrDurationMS: formatMilliseconds(duration),
	})
}

func (o *queryObserver) failure(errorType string, duration time.Duration) {
	status := statusError
	if errorType == errorTypeTimeout {
		status = statusTimeout
	}

	o.c.recordDurationMetrics(o.ctx, duration, o.operation, status)
	o.c.recordErrorMetrics(o.ctx, o.operation, errorType)

	if o.span == nil {
		return
	}

	o.span.SetStatus(status)
	o.c.tracingCollector.FinishSpan(o.span, status, map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: formatMilliseconds(duration),
	})
}
