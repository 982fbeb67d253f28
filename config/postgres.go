package config

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver for sqlx
)

// ErrConnectingToPostgresFailed is returned when the database can not be reached.
var ErrConnectingToPostgresFailed = errors.New("connecting to postgres failed")

// NewPGXPool creates a tuned pgx connection pool for the given DSN.
func NewPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	const defaultMaxConnections = int32(8)
	const defaultMinConnections = int32(2)
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5
	const defaultHealthCheckPeriod = time.Minute
	const defaultConnectTimeout = time.Second * 5

	dbConfig, parseErr := pgxpool.ParseConfig(dsn)
	if parseErr != nil {
		return nil, errors.Join(ErrConnectingToPostgresFailed, parseErr)
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MinConns = defaultMinConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, poolErr := pgxpool.NewWithConfig(ctx, dbConfig)
	if poolErr != nil {
		return nil, errors.Join(ErrConnectingToPostgresFailed, poolErr)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectingToPostgresFailed, pingErr)
	}

	return pool, nil
}

// NewSQLXDB creates a tuned sqlx database handle for the given DSN.
func NewSQLXDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	const defaultMaxOpenConnections = 8
	const defaultMaxIdleConnections = 2
	const defaultConnMaxLifetime = time.Hour

	db, openErr := sqlx.Open("postgres", dsn)
	if openErr != nil {
		return nil, errors.Join(ErrConnectingToPostgresFailed, openErr)
	}

	db.SetMaxOpenConns(defaultMaxOpenConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectingToPostgresFailed, pingErr)
	}

	return db, nil
}
