package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver for database/sql
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver for database/sql

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

// Store is an open, pinged connection with its query context.
// Close releases the underlying pool or handle.
type Store struct {
	Queries sqlengine.Context
	Info    ConnectionInfo
	close   func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the store described by info, applies the pool configuration of its driver,
// and pings it. The dialect option is derived from info and precedes options.
// An unreachable store or rejected credentials fail with eventqueries.ErrConnection.
func Open(ctx context.Context, info ConnectionInfo, options ...sqlengine.Option) (*Store, error) {
	allOptions := append([]sqlengine.Option{sqlengine.WithDialect(info.Dialect)}, options...)

	store, err := open(ctx, info, allOptions)
	if err != nil {
		return nil, err
	}

	if err = store.Queries.Ping(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

func open(ctx context.Context, info ConnectionInfo, options []sqlengine.Option) (*Store, error) {
	switch info.Driver {
	case DriverPGX:
		poolConfig, err := PGXPoolConfig(info.DSN)
		if err != nil {
			return nil, err
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, errors.Join(eventqueries.ErrConnection, err)
		}

		return newStore(info, pool.Close, func() (sqlengine.Context, error) {
			return sqlengine.NewContextFromPGXPool(pool, options...)
		})

	case DriverPostgres:
		db, err := sql.Open("postgres", info.DSN)
		if err != nil {
			return nil, errors.Join(eventqueries.ErrConnection, err)
		}
		ConfigureSQLDBPool(db)

		return newStore(info, func() { _ = db.Close() }, func() (sqlengine.Context, error) {
			return sqlengine.NewContextFromSQLDB(db, options...)
		})

	case DriverSQLX:
		db, err := sqlx.Open("postgres", info.DSN)
		if err != nil {
			return nil, errors.Join(eventqueries.ErrConnection, err)
		}
		ConfigureSQLDBPool(db.DB)

		return newStore(info, func() { _ = db.Close() }, func() (sqlengine.Context, error) {
			return sqlengine.NewContextFromSQLX(db, options...)
		})

	case DriverMySQL:
		db, err := MySQLDB(info.DSN)
		if err != nil {
			return nil, err
		}

		return newStore(info, func() { _ = db.Close() }, func() (sqlengine.Context, error) {
			return sqlengine.NewContextFromSQLDB(db, options...)
		})

	case DriverSQLite3:
		db, err := sql.Open("sqlite3", info.DSN)
		if err != nil {
			return nil, errors.Join(eventqueries.ErrConnection, err)
		}
		db.SetMaxOpenConns(1)

		return newStore(info, func() { _ = db.Close() }, func() (sqlengine.Context, error) {
			return sqlengine.NewContextFromSQLDB(db, options...)
		})

	default:
		return nil, errors.Join(eventqueries.ErrConnection, fmt.Errorf("unsupported driver %q", info.Driver))
	}
}

func newStore(info ConnectionInfo, closeFn func(), build func() (sqlengine.Context, error)) (*Store, error) {
	queries, err := build()
	if err != nil {
		closeFn()
		return nil, err
	}

	return &Store{Queries: queries, Info: info, close: closeFn}, nil
}

// PGXPoolConfig parses dsn and applies the demo's pool limits.
func PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	const defaultMaxConnections = int32(8)
	const defaultMinConnections = int32(0)
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5
	const defaultHealthCheckPeriod = time.Minute
	const defaultConnectTimeout = time.Second * 5

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(eventqueries.ErrConnection, err)
	}

	poolConfig.MaxConns = defaultMaxConnections
	poolConfig.MinConns = defaultMinConnections
	poolConfig.MaxConnLifetime = defaultMaxConnLifetime
	poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return poolConfig, nil
}

// ConfigureSQLDBPool applies the demo's pool limits to a database/sql handle.
func ConfigureSQLDBPool(db *sql.DB) {
	const defaultMaxOpenConnections = 8
	const defaultMaxIdleConnections = 2
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5

	db.SetMaxOpenConns(defaultMaxOpenConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}

// MySQLDB opens a pooled mysql handle through a connector, so the parsed configuration is used as-is.
func MySQLDB(dsn string) (*sql.DB, error) {
	mysqlConfig, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Join(eventqueries.ErrConnection, err)
	}

	mysqlConfig.Timeout = 5 * time.Second

	connector, err := mysql.NewConnector(mysqlConfig)
	if err != nil {
		return nil, errors.Join(eventqueries.ErrConnection, err)
	}

	db := sql.OpenDB(connector)
	ConfigureSQLDBPool(db)

	return db, nil
}
