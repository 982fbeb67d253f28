package postgresrepo_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/analisys/circulation-go/core"
	"github.com/analisys/circulation-go/postgresrepo"
)

func Test_Repository_Save_UpsertsLoanRow(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)
	loan := givenLoan(t)

	// arrange
	mock.ExpectExec(`INSERT INTO "loans"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// act
	err := repo.Save(context.Background(), loan)

	// assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_Repository_Save_WrapsDatabaseErrors(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)
	loan := givenLoan(t)
	dbErr := errors.New("connection reset")

	// arrange
	mock.ExpectExec(`INSERT INTO "loans"`).
		WillReturnError(dbErr)

	// act
	err := repo.Save(context.Background(), loan)

	// assert
	assert.ErrorIs(t, err, postgresrepo.ErrSavingLoanFailed)
	assert.ErrorIs(t, err, dbErr)
}

func Test_Repository_FindByID_ReturnsStoredLoan(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)
	loan := givenLoan(t)

	// arrange
	mock.ExpectQuery(`SELECT .+ FROM "loans" WHERE`).
		WillReturnRows(loanRows(loan))

	// act
	found, exists, err := repo.FindByID(context.Background(), loan.ID)

	// assert
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, loan, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_Repository_FindByID_ReportsMissingLoanWithoutError(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)

	// arrange
	mock.ExpectQuery(`SELECT .+ FROM "loans" WHERE`).
		WillReturnRows(loanRows())

	// act
	_, exists, err := repo.FindByID(context.Background(), "no-such-loan")

	// assert
	assert.NoError(t, err)
	assert.False(t, exists)
}

func Test_Repository_FindByID_DoesNotReportConnectionLossAsMissingLoan(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)
	dbErr := errors.New("connection reset by peer")

	// arrange: the connection drops while the result row is being delivered
	rows := sqlmock.NewRows([]string{"loan_id", "user_id", "book_id", "loan_date", "due_date", "status"}).
		AddRow("loan-1", "user-1", "book-1", time.Now(), time.Now(), "ACTIVE").
		RowError(0, dbErr)
	mock.ExpectQuery(`SELECT .+ FROM "loans" WHERE`).
		WillReturnRows(rows)

	// act
	_, exists, err := repo.FindByID(context.Background(), "loan-1")

	// assert: a transient failure must surface as an error, never as "not found"
	assert.ErrorIs(t, err, postgresrepo.ErrFindingLoanFailed)
	assert.ErrorIs(t, err, postgresrepo.ErrRowIterationFailed)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, exists)
}

func Test_Repository_FindAll_ReportsConnectionLossMidIteration(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)
	first := givenLoan(t)
	dbErr := errors.New("unexpected EOF")

	// arrange: the second row never arrives
	rows := loanRows(first).
		AddRow("loan-2", "user-2", "book-2", time.Now(), time.Now(), "ACTIVE").
		RowError(1, dbErr)
	mock.ExpectQuery(`SELECT .+ FROM "loans"`).
		WillReturnRows(rows)

	// act
	loans, err := repo.FindAll(context.Background())

	// assert: no partial list may pass as a complete result
	assert.ErrorIs(t, err, postgresrepo.ErrListingLoansFailed)
	assert.ErrorIs(t, err, postgresrepo.ErrRowIterationFailed)
	assert.Nil(t, loans)
}

func Test_Repository_FindByID_WrapsDatabaseErrors(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)
	dbErr := errors.New("relation does not exist")

	// arrange
	mock.ExpectQuery(`SELECT .+ FROM "loans"`).
		WillReturnError(dbErr)

	// act
	_, _, err := repo.FindByID(context.Background(), "loan-1")

	// assert
	assert.ErrorIs(t, err, postgresrepo.ErrFindingLoanFailed)
	assert.ErrorIs(t, err, dbErr)
}

func Test_Repository_FindAll_ReturnsLoansOrderedByLoanDate(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)
	first := givenLoan(t)
	second := givenLoanWith(t, "loan-2", "user-2", "book-2", first.LoanDate.Add(time.Hour))

	// arrange
	mock.ExpectQuery(`SELECT .+ FROM "loans" ORDER BY "loan_date" ASC`).
		WillReturnRows(loanRows(first, second))

	// act
	loans, err := repo.FindAll(context.Background())

	// assert
	assert.NoError(t, err)
	assert.Equal(t, []core.Loan{first, second}, loans)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_Repository_FindAll_ReturnsEmptySliceWhenNoLoansExist(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)

	// arrange
	mock.ExpectQuery(`SELECT .+ FROM "loans"`).
		WillReturnRows(loanRows())

	// act
	loans, err := repo.FindAll(context.Background())

	// assert
	assert.NoError(t, err)
	assert.Empty(t, loans)
	assert.NotNil(t, loans)
}

func Test_Repository_FindAll_WrapsScanErrors(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)

	// arrange: a row with a non-time value in a timestamp column
	rows := sqlmock.NewRows([]string{"loan_id", "user_id", "book_id", "loan_date", "due_date", "status"}).
		AddRow("loan-1", "user-1", "book-1", "not a timestamp", "also not", "ACTIVE")
	mock.ExpectQuery(`SELECT .+ FROM "loans"`).
		WillReturnRows(rows)

	// act
	_, err := repo.FindAll(context.Background())

	// assert
	assert.ErrorIs(t, err, postgresrepo.ErrListingLoansFailed)
	assert.ErrorIs(t, err, postgresrepo.ErrScanningDBRowFailed)
}

func Test_Repository_EnsureSchema_CreatesLoansTable(t *testing.T) {
	// setup
	repo, mock := givenRepositoryWithMockDB(t)

	// arrange
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS loans`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// act
	err := repo.EnsureSchema(context.Background())

	// assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_NewRepositoryFromSQLDB_RejectsNilConnection(t *testing.T) {
	// act
	_, err := postgresrepo.NewRepositoryFromSQLDB(nil)

	// assert
	assert.ErrorIs(t, err, postgresrepo.ErrNilDatabaseConnection)
}

func Test_NewRepositoryFromSQLX_RejectsNilConnection(t *testing.T) {
	// act
	_, err := postgresrepo.NewRepositoryFromSQLX(nil)

	// assert
	assert.ErrorIs(t, err, postgresrepo.ErrNilDatabaseConnection)
}

func Test_NewRepositoryFromPGXPool_RejectsNilConnection(t *testing.T) {
	// act
	_, err := postgresrepo.NewRepositoryFromPGXPool(nil)

	// assert
	assert.ErrorIs(t, err, postgresrepo.ErrNilDatabaseConnection)
}

func Test_WithTableName_RejectsEmptyName(t *testing.T) {
	// setup
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// act
	_, err = postgresrepo.NewRepositoryFromSQLDB(db, postgresrepo.WithTableName(""))

	// assert
	assert.ErrorIs(t, err, postgresrepo.ErrEmptyLoansTableName)
}

func Test_WithTableName_UsesConfiguredTable(t *testing.T) {
	// setup
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := postgresrepo.NewRepositoryFromSQLDB(db, postgresrepo.WithTableName("archived_loans"))
	assert.NoError(t, err)

	// arrange
	mock.ExpectQuery(`SELECT .+ FROM "archived_loans"`).
		WillReturnRows(loanRows())

	// act
	_, findErr := repo.FindAll(context.Background())

	// assert
	assert.NoError(t, findErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

/*** Test Helper Methods ***/

func givenRepositoryWithMockDB(t *testing.T) (postgresrepo.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := postgresrepo.NewRepositoryFromSQLDB(db)
	assert.NoError(t, err)

	return repo, mock
}

func givenLoan(t *testing.T) core.Loan {
	t.Helper()

	loanDate := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	return givenLoanWith(t, "loan-1", "user-1", "book-1", loanDate)
}

func givenLoanWith(
	t *testing.T,
	id core.LoanIDString,
	userID core.UserIDString,
	bookID core.BookIDString,
	loanDate time.Time,
) core.Loan {
	t.Helper()

	loan, err := core.BuildLoan(id, userID, bookID, loanDate, loanDate.Add(14*24*time.Hour))
	assert.NoError(t, err)

	return loan
}

func loanRows(loans ...core.Loan) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"loan_id", "user_id", "book_id", "loan_date", "due_date", "status"})

	for _, loan := range loans {
		rows.AddRow(loan.ID, loan.UserID, loan.BookID, time.Time(loan.LoanDate), time.Time(loan.DueDate), string(loan.Status))
	}

	return rows
}
