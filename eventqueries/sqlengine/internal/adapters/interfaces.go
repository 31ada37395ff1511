package adapters

import "context"

// DBAdapter defines the read operations the query engine needs from a database handle.
type DBAdapter interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Ping(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}
