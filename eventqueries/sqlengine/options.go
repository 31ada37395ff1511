package sqlengine

import (
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
)

// Option defines a functional option for configuring a Context.
type Option func(*Context) error

// WithDialect selects the SQL dialect: DialectPostgres (default), DialectMySQL, or DialectSQLite3.
func WithDialect(dialect string) Option {
	return func(c *Context) error {
		if !IsSupportedDialect(dialect) {
			return errors.Join(eventqueries.ErrTranslation, fmt.Errorf("unsupported dialect %q", dialect))
		}

		c.dialect = dialect

		return nil
	}
}

// WithEventsTableName sets the name of the events table.
func WithEventsTableName(tableName string) Option {
	return func(c *Context) error {
		if tableName == "" {
			return eventqueries.ErrEmptyTableName
		}

		c.eventsTableName = tableName

		return nil
	}
}

// WithAttendeesTableName sets the name of the table holding the owned attendees.
func WithAttendeesTableName(tableName string) Option {
	return func(c *Context) error {
		if tableName == "" {
			return eventqueries.ErrEmptyTableName
		}

		c.attendeesTableName = tableName

		return nil
	}
}

// WithQueryTimeout sets the deadline applied to every statement. Zero disables it.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(c *Context) error {
		if timeout < 0 {
			return fmt.Errorf("query timeout must not be negative, got %s", timeout)
		}

		c.queryTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the Context.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: every emitted SQL statement with execution timing
// Info level: row counts and durations per operation
// Warn level: non-critical issues like cleanup failures
// Error level: failures that abort an operation.
func WithLogger(logger eventqueries.Logger) Option {
	return func(c *Context) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger, used instead of the plain logger when both are set.
func WithContextualLogger(logger eventqueries.ContextualLogger) Option {
	return func(c *Context) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector receiving query durations, returned row counts, and database errors.
func WithMetrics(collector eventqueries.MetricsCollector) Option {
	return func(c *Context) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector; every query operation gets its own span.
func WithTracing(collector eventqueries.TracingCollector) Option {
	return func(c *Context) error {
		c.tracingCollector = collector
		return nil
	}
}
