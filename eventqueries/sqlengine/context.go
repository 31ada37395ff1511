package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine/internal/adapters"
)

const (
	defaultEventsTableName    = "events"
	defaultAttendeesTableName = "event_attendees"
	defaultQueryTimeout       = 5 * time.Second
)

// Context is a scoped handle on the relational store. It exposes the Events query surface and
// owns the observability hooks every statement it issues reports to.
//
// A Context does not own the database handle it was created from; closing the pool or DB stays
// with the caller.
type Context struct {
	db                 adapters.DBAdapter
	dialect            string
	builder            goqu.DialectWrapper
	eventsTableName    string
	attendeesTableName string
	queryTimeout       time.Duration
	logger             eventqueries.Logger
	contextualLogger   eventqueries.ContextualLogger
	metricsCollector   eventqueries.MetricsCollector
	tracingCollector   eventqueries.TracingCollector
}

// NewContextFromPGXPool creates a new Context using a pgx Pool with optional configuration.
func NewContextFromPGXPool(db *pgxpool.Pool, options ...Option) (Context, error) {
	if db == nil {
		return Context{}, eventqueries.ErrNilDatabaseConnection
	}

	return newContext(adapters.NewPGXAdapter(db), options)
}

// NewContextFromPGXPoolWithReplica creates a new Context that sends every query to the replica pool.
// The primary pool is only pinged.
func NewContextFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Context, error) {
	if db == nil || replica == nil {
		return Context{}, eventqueries.ErrNilDatabaseConnection
	}

	return newContext(adapters.NewPGXAdapterWithReplica(db, replica), options)
}

// NewContextFromSQLDB creates a new Context using a sql.DB with optional configuration.
// Use WithDialect when the DB is not a postgres connection.
func NewContextFromSQLDB(db *sql.DB, options ...Option) (Context, error) {
	if db == nil {
		return Context{}, eventqueries.ErrNilDatabaseConnection
	}

	return newContext(adapters.NewSQLAdapter(db), options)
}

// NewContextFromSQLX creates a new Context using a sqlx.DB with optional configuration.
func NewContextFromSQLX(db *sqlx.DB, options ...Option) (Context, error) {
	if db == nil {
		return Context{}, eventqueries.ErrNilDatabaseConnection
	}

	return newContext(adapters.NewSQLXAdapter(db), options)
}

func newContext(db adapters.DBAdapter, options []Option) (Context, error) {
	c := Context{
		db:                 db,
		dialect:            DialectPostgres,
		eventsTableName:    defaultEventsTableName,
		attendeesTableName: defaultAttendeesTableName,
		queryTimeout:       defaultQueryTimeout,
	}

	for _, option := range options {
		if err := option(&c); err != nil {
			return Context{}, err
		}
	}

	c.builder = goqu.Dialect(c.dialect)

	return c, nil
}

// Events returns the query surface over all stored events with their attendees.
func (c Context) Events() EventQuery {
	return EventQuery{c: c}
}

// Dialect returns the SQL dialect statements are rendered for.
func (c Context) Dialect() string {
	return c.dialect
}

// Ping verifies that the store is reachable with the configured credentials.
func (c Context) Ping(ctx context.Context) error {
	ctx, cancel := c.withQueryTimeout(ctx)
	defer cancel()

	start := time.Now()
	if err := c.db.Ping(ctx); err != nil {
		c.logError(ctx, logMsgPingFailed, err)
		c.recordErrorMetrics(ctx, operationPing, errorTypeConnection)

		return errors.Join(eventqueries.ErrConnection, err)
	}

	c.logOperation(ctx, logMsgPingSucceeded, logAttrDurationMS, toMilliseconds(time.Since(start)))

	return nil
}

func (c Context) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.queryTimeout)
}
