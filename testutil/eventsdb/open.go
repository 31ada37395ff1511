package eventsdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"           // postgres driver for database/sql
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver for database/sql
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

// PostgresDSNEnv names the environment variable holding the DSN of the postgres test database.
const PostgresDSNEnv = "EVENTQUERIES_TEST_POSTGRES_DSN"

const testDBLockID int64 = 730519024

// OpenSQLite creates an empty sqlite database in a temporary directory with the schema applied.
// The handle is limited to one open connection and closed when the test ends.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.db")
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	require.NoError(t, err, "error in opening the sqlite test database")

	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, CreateSchema(ctx, db, sqlengine.DialectSQLite3), "error in creating the sqlite schema")

	return db
}

// PostgresHandles is an emptied postgres test database, reachable through pgx and database/sql.
type PostgresHandles struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// OpenPostgres connects to the database named by EVENTQUERIES_TEST_POSTGRES_DSN, applies the schema,
// and deletes all rows. The test is skipped when the variable is unset or the database is unreachable.
// An advisory lock serializes test packages sharing the database.
func OpenPostgres(t testing.TB) PostgresHandles {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("skipping postgres integration tests: %s is not set", PostgresDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err, "error in parsing the postgres test DSN")
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err, "error in creating the postgres test pool")

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skipping postgres integration tests: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "error in opening the postgres test database")

	t.Cleanup(func() {
		_ = db.Close()
		pool.Close()
	})

	lockTestDB(t, pool)

	require.NoError(t, CreateSchema(ctx, db, sqlengine.DialectPostgres), "error in creating the postgres schema")
	require.NoError(t, Clear(ctx, db), "error in clearing the postgres test database")

	return PostgresHandles{Pool: pool, DB: db}
}

func lockTestDB(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err, "error in acquiring the lock connection")

	if _, err = conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, testDBLockID); err != nil {
		conn.Release()
		t.Fatalf("acquire test lock: %v", err)
	}

	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, testDBLockID)
		conn.Release()
	})
}
