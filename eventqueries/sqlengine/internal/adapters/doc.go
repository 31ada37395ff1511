// Package adapters provides the database handle implementations behind the query engine.
//
// pgxpool.Pool, sql.DB, and sqlx.DB are wrapped behind the common DBAdapter interface, so the
// engine builds and executes the same statements regardless of which library opened the connection.
// Only reads are supported.
package adapters
