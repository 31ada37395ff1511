// Package config resolves and opens the connection used by the event query demo.
//
// The connection string comes from a YAML file (connectionStrings.defaultConnection),
// a .env file, or the EVENTQUERIES_DEFAULT_CONNECTION environment variable, in increasing precedence.
// It is validated per driver (pgx, postgres, sqlx, mysql, sqlite3) before a pool is opened.
package config
