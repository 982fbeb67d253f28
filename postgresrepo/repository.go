package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/analisys/circulation-go/core"
	"github.com/analisys/circulation-go/postgresrepo/internal/adapters"
)

const (
	defaultLoansTableName = "loans"

	logMsgBuildQueryFailed  = "failed to build query"
	logMsgDBQueryFailed     = "database query execution failed"
	logMsgDBExecFailed      = "database execution failed"
	logMsgCloseRowsFailed   = "failed to close database rows"
	logMsgScanRowFailed     = "failed to scan database row"
	logMsgRowsIterFailed    = "database row iteration failed"
	logMsgLoanSaved         = "loan saved"
	logMsgLoanFound         = "loan lookup completed"
	logMsgLoansListed       = "loans listed"
	logMsgSchemaEnsured     = "loans schema ensured"
	logMsgSQLExecuted       = "executed sql for: "
	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrLoanID           = "loan_id"
	logAttrLoanCount        = "loan_count"
	logAttrRowsAffected     = "rows_affected"
	logAttrDurationMS       = "duration_ms"
	logActionSave           = "save"
	logActionFind           = "find"
	logActionList           = "list"
	logActionEnsureSchema   = "ensure schema"
	colLoanID               = "loan_id"
	colUserID               = "user_id"
	colBookID               = "book_id"
	colLoanDate             = "loan_date"
	colDueDate              = "due_date"
	colStatus               = "status"
	dialectPostgres         = "postgres"
)

// schemaDDL bootstraps the loans table. Idempotent on purpose.
const schemaDDL = `CREATE TABLE IF NOT EXISTS %TABLE% (
	loan_id   text PRIMARY KEY,
	user_id   text NOT NULL,
	book_id   text NOT NULL,
	loan_date timestamptz NOT NULL,
	due_date  timestamptz NOT NULL,
	status    text NOT NULL
)`

var (
	// ErrNilDatabaseConnection is returned when a repository is created without a database connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyLoansTableName is returned when an empty table name is configured.
	ErrEmptyLoansTableName = errors.New("loans table name must not be empty")

	// ErrBuildingQueryFailed is returned when goqu fails to build a SQL statement.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrSavingLoanFailed is returned when the upsert of a loan row fails.
	ErrSavingLoanFailed = errors.New("saving loan failed")

	// ErrFindingLoanFailed is returned when the lookup of a loan row fails.
	ErrFindingLoanFailed = errors.New("finding loan failed")

	// ErrListingLoansFailed is returned when listing loan rows fails.
	ErrListingLoansFailed = errors.New("listing loans failed")

	// ErrScanningDBRowFailed is returned when a result row can not be scanned.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")

	// ErrRowIterationFailed is returned when the result set terminated early,
	// for example because the connection dropped mid-result.
	ErrRowIterationFailed = errors.New("database row iteration failed")

	// ErrEnsuringSchemaFailed is returned when the schema bootstrap fails.
	ErrEnsuringSchemaFailed = errors.New("ensuring loans schema failed")
)

// Logger interface for SQL query logging, operational messages, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Repository stores loans in a Postgres table.
// It leverages a database adapter and supports customizable logging and table configuration.
type Repository struct {
	db             adapters.DBAdapter
	loansTableName string
	logger         Logger
}

// Option defines a functional option for configuring a Repository.
type Option func(*Repository) error

// WithTableName sets the table name for the Repository.
func WithTableName(tableName string) Option {
	return func(r *Repository) error {
		if tableName == "" {
			return ErrEmptyLoansTableName
		}

		r.loansTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Repository.
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Row counts and durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(r *Repository) error {
		r.logger = logger
		return nil
	}
}

// NewRepositoryFromPGXPool creates a new Repository using a pgx pool with optional configuration.
func NewRepositoryFromPGXPool(pool *pgxpool.Pool, options ...Option) (Repository, error) {
	if pool == nil {
		return Repository{}, ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewPGXAdapter(pool), options...)
}

// NewRepositoryFromSQLX creates a new Repository using a sqlx.DB with optional configuration.
func NewRepositoryFromSQLX(db *sqlx.DB, options ...Option) (Repository, error) {
	if db == nil {
		return Repository{}, ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewSQLXAdapter(db), options...)
}

// NewRepositoryFromSQLDB creates a new Repository using a sql.DB with optional configuration.
func NewRepositoryFromSQLDB(db *sql.DB, options ...Option) (Repository, error) {
	if db == nil {
		return Repository{}, ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewSQLAdapter(db), options...)
}

func newRepository(db adapters.DBAdapter, options ...Option) (Repository, error) {
	r := Repository{
		db:             db,
		loansTableName: defaultLoansTableName,
	}

	for _, option := range options {
		if err := option(&r); err != nil {
			return Repository{}, err
		}
	}

	return r, nil
}

// EnsureSchema creates the loans table if it does not exist yet.
func (r Repository) EnsureSchema(ctx context.Context) error {
	ddl := strings.ReplaceAll(schemaDDL, "%TABLE%", r.loansTableName)

	start := time.Now()
	_, execErr := r.db.Exec(ctx, ddl)
	r.logQueryWithDuration(ddl, logActionEnsureSchema, time.Since(start))

	if execErr != nil {
		if r.logger != nil {
			r.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, ddl)
		}

		return errors.Join(ErrEnsuringSchemaFailed, execErr)
	}

	if r.logger != nil {
		r.logger.Debug(logMsgSchemaEnsured)
	}

	return nil
}

// Save persists the loan, creating the row or replacing the stored record with the same id.
func (r Repository) Save(ctx context.Context, loan core.Loan) error {
	sqlQuery, buildErr := r.buildUpsertQuery(loan)
	if buildErr != nil {
		return buildErr
	}

	start := time.Now()
	result, execErr := r.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	r.logQueryWithDuration(sqlQuery, logActionSave, duration)

	if execErr != nil {
		if r.logger != nil {
			r.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return errors.Join(ErrSavingLoanFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		rowsAffected = -1 // not all drivers report it, the save still succeeded
	}

	r.logOperation(
		logMsgLoanSaved,
		logAttrLoanID, loan.ID,
		logAttrRowsAffected, rowsAffected,
		logAttrDurationMS, r.durationToMilliseconds(duration))

	return nil
}

// FindByID returns the loan with the given id.
// The boolean reports whether a row was found; a missing row is not an error.
func (r Repository) FindByID(ctx context.Context, id core.LoanIDString) (core.Loan, bool, error) {
	sqlQuery, buildErr := r.buildSelectQuery(goqu.C(colLoanID).Eq(id))
	if buildErr != nil {
		return core.Loan{}, false, buildErr
	}

	loans, err := r.queryLoans(ctx, sqlQuery, logActionFind, ErrFindingLoanFailed)
	if err != nil {
		return core.Loan{}, false, err
	}

	if len(loans) == 0 {
		r.logOperation(logMsgLoanFound, logAttrLoanID, id, logAttrLoanCount, 0)
		return core.Loan{}, false, nil
	}

	r.logOperation(logMsgLoanFound, logAttrLoanID, id, logAttrLoanCount, len(loans))

	return loans[0], true, nil
}

// FindAll returns every stored loan ordered by loan date.
func (r Repository) FindAll(ctx context.Context) ([]core.Loan, error) {
	sqlQuery, buildErr := r.buildSelectQuery(nil)
	if buildErr != nil {
		return nil, buildErr
	}

	loans, err := r.queryLoans(ctx, sqlQuery, logActionList, ErrListingLoansFailed)
	if err != nil {
		return nil, err
	}

	r.logOperation(logMsgLoansListed, logAttrLoanCount, len(loans))

	return loans, nil
}

func (r Repository) buildUpsertQuery(loan core.Loan) (string, error) {
	record := goqu.Record{
		colLoanID:   loan.ID,
		colUserID:   loan.UserID,
		colBookID:   loan.BookID,
		colLoanDate: loan.LoanDate,
		colDueDate:  loan.DueDate,
		colStatus:   string(loan.Status),
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(r.loansTableName).
		Rows(record).
		OnConflict(goqu.DoUpdate(colLoanID, goqu.Record{
			colLoanDate: loan.LoanDate,
			colDueDate:  loan.DueDate,
			colStatus:   string(loan.Status),
		}))

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		if r.logger != nil {
			r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrLoanID, loan.ID)
		}

		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (r Repository) buildSelectQuery(where goqu.Expression) (string, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(r.loansTableName).
		Select(colLoanID, colUserID, colBookID, colLoanDate, colDueDate, colStatus).
		Order(goqu.I(colLoanDate).Asc(), goqu.I(colLoanID).Asc())

	if where != nil {
		selectStmt = selectStmt.Where(where)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		if r.logger != nil {
			r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		}

		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (r Repository) queryLoans(ctx context.Context, sqlQuery string, action string, failure error) ([]core.Loan, error) {
	start := time.Now()
	rows, queryErr := r.db.Query(ctx, sqlQuery)
	r.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if queryErr != nil {
		if r.logger != nil {
			r.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, errors.Join(failure, queryErr)
	}

	defer r.closeRows(rows)

	loans := make([]core.Loan, 0)

	for rows.Next() {
		var (
			loanID   string
			userID   string
			bookID   string
			loanDate time.Time
			dueDate  time.Time
			status   string
		)

		if scanErr := rows.Scan(&loanID, &userID, &bookID, &loanDate, &dueDate, &status); scanErr != nil {
			if r.logger != nil {
				r.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return nil, errors.Join(failure, ErrScanningDBRowFailed, scanErr)
		}

		loans = append(loans, core.Loan{
			ID:       loanID,
			UserID:   userID,
			BookID:   bookID,
			LoanDate: core.ToTimestamp(loanDate),
			DueDate:  core.ToTimestamp(dueDate),
			Status:   core.LoanStatus(status),
		})
	}

	// a dropped connection ends the loop without a Scan error, it must not
	// pass as an empty or truncated result
	if iterErr := rows.Err(); iterErr != nil {
		if r.logger != nil {
			r.logger.Error(logMsgRowsIterFailed, logAttrError, iterErr.Error())
		}

		return nil, errors.Join(failure, ErrRowIterationFailed, iterErr)
	}

	return loans, nil
}

// closeRows safely closes database rows and logs any errors.
func (r Repository) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if r.logger != nil {
			r.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs the SQL query with timing at debug level.
func (r Repository) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if r.logger != nil {
		r.logger.Debug(
			logMsgSQLExecuted+action,
			logAttrQuery, sqlQuery,
			logAttrDurationMS, r.durationToMilliseconds(duration))
	}
}

// logOperation logs operational messages at info level.
func (r Repository) logOperation(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r Repository) durationToMilliseconds(duration time.Duration) float64 {
	return float64(duration.Nanoseconds()) / 1e6
}
