package eventsdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		city TEXT NOT NULL,
		event_date DATE NOT NULL,
		event_time TIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS event_attendees (
		event_id BIGINT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		ordinal INT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		PRIMARY KEY (event_id, ordinal)
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		city VARCHAR(255) NOT NULL,
		event_date DATE NOT NULL,
		event_time TIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS event_attendees (
		event_id BIGINT NOT NULL,
		ordinal INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		PRIMARY KEY (event_id, ordinal),
		FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE CASCADE
	)`,
}

// sqlite stores dates and times as ISO text, which keeps them sortable and lets the engine concatenate them.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL,
		event_date DATE NOT NULL,
		event_time TIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS event_attendees (
		event_id INTEGER NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		ordinal INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		PRIMARY KEY (event_id, ordinal)
	)`,
}

// Schema returns the DDL statements creating the events and event_attendees tables for dialect.
func Schema(dialect string) ([]string, error) {
	switch dialect {
	case sqlengine.DialectPostgres:
		return postgresSchema, nil
	case sqlengine.DialectMySQL:
		return mysqlSchema, nil
	case sqlengine.DialectSQLite3:
		return sqliteSchema, nil
	default:
		return nil, fmt.Errorf("no schema for dialect %q", dialect)
	}
}

// CreateSchema creates the tables if they do not exist yet.
func CreateSchema(ctx context.Context, db *sql.DB, dialect string) error {
	statements, err := Schema(dialect)
	if err != nil {
		return err
	}

	for _, stmt := range statements {
		if _, err = db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	return nil
}

// Clear deletes all attendees and events.
func Clear(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"event_attendees", "events"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return nil
}
