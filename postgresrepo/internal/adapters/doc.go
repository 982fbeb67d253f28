// Package adapters provides database abstraction adapters for the loan repository.
//
// It defines the DBAdapter interface and implementations for different
// database connection types (pgx pool, sqlx, database/sql), so the repository
// works uniformly across Postgres client libraries.
package adapters
