package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the loan repository
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
// Err reports any error that terminated the iteration; it must be checked
// after Next returns false, since a dropped connection surfaces there and
// not as a Scan failure.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results
type DBResult interface {
	RowsAffected() (int64, error)
}
