// Package postgresrepo implements the loan repository on PostgreSQL.
//
// Loans are stored as one row per loan, keyed by loan id; Save is an upsert so
// the open operation creates the row and the close operation flips its status.
// SQL is built with goqu's postgres dialect and executed through a small
// database adapter seam, so the repository works with a pgx pool, a sqlx.DB,
// or a plain database/sql DB.
//
// The store provides its own concurrency control for the single loan row;
// cross-system atomicity (catalog availability, notifications) is explicitly
// out of this package's hands.
package postgresrepo
