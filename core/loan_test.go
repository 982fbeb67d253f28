package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/analisys/circulation-go/core"
)

func Test_BuildLoan_Success(t *testing.T) {
	// arrange
	loanDate := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	dueDate := loanDate.Add(14 * 24 * time.Hour)

	// act
	loan, err := core.BuildLoan("loan-1", "user-1", "book-1", loanDate, dueDate)

	// assert
	assert.NoError(t, err, "Should build a valid loan")
	assert.Equal(t, "loan-1", loan.ID)
	assert.Equal(t, "user-1", loan.UserID)
	assert.Equal(t, "book-1", loan.BookID)
	assert.Equal(t, core.StatusActive, loan.Status, "New loans should start ACTIVE")
	assert.False(t, loan.DueDate.Before(loan.LoanDate), "Due date should not precede loan date")
}

func Test_BuildLoan_NormalizesTimestampsToUTC(t *testing.T) {
	// arrange
	location := time.FixedZone("UTC+2", 2*60*60)
	loanDate := time.Date(2025, 3, 1, 12, 0, 0, 999, location)

	// act
	loan, err := core.BuildLoan("loan-1", "user-1", "book-1", loanDate, loanDate.Add(time.Hour))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, loan.LoanDate.Location(), "Loan date should be normalized to UTC")
	assert.Equal(t, loan.LoanDate, loan.LoanDate.Truncate(time.Microsecond), "Loan date should have microsecond precision")
}

func Test_BuildLoan_ValidationErrors(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name        string
		id          string
		userID      string
		bookID      string
		loanDate    time.Time
		dueDate     time.Time
		expectedErr error
	}{
		{
			name:        "empty loan id",
			userID:      "user-1",
			bookID:      "book-1",
			loanDate:    now,
			dueDate:     now,
			expectedErr: core.ErrEmptyLoanID,
		},
		{
			name:        "empty user id",
			id:          "loan-1",
			bookID:      "book-1",
			loanDate:    now,
			dueDate:     now,
			expectedErr: core.ErrEmptyUserID,
		},
		{
			name:        "empty book id",
			id:          "loan-1",
			userID:      "user-1",
			loanDate:    now,
			dueDate:     now,
			expectedErr: core.ErrEmptyBookID,
		},
		{
			name:        "due date before loan date",
			id:          "loan-1",
			userID:      "user-1",
			bookID:      "book-1",
			loanDate:    now,
			dueDate:     now.Add(-time.Hour),
			expectedErr: core.ErrDueDateBeforeLoanDate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := core.BuildLoan(tc.id, tc.userID, tc.bookID, tc.loanDate, tc.dueDate)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_BuildLoan_EqualLoanAndDueDateIsValid(t *testing.T) {
	// arrange
	now := time.Now()

	// act
	loan, err := core.BuildLoan("loan-1", "user-1", "book-1", now, now)

	// assert
	assert.NoError(t, err, "Equal loan and due dates should be valid")
	assert.Equal(t, loan.LoanDate, loan.DueDate)
}

func Test_Loan_MarkReturned(t *testing.T) {
	// arrange
	now := time.Now()
	loan, err := core.BuildLoan("loan-1", "user-1", "book-1", now, now.Add(time.Hour))
	assert.NoError(t, err)

	// act
	returned := loan.MarkReturned()

	// assert
	assert.Equal(t, core.StatusReturned, returned.Status)
	assert.True(t, returned.IsReturned())
	assert.Equal(t, core.StatusActive, loan.Status, "Original value should be unchanged")
}

func Test_Loan_MarkReturned_IsMonotonic(t *testing.T) {
	// arrange
	now := time.Now()
	loan, err := core.BuildLoan("loan-1", "user-1", "book-1", now, now.Add(time.Hour))
	assert.NoError(t, err)

	// act
	returned := loan.MarkReturned().MarkReturned()

	// assert
	assert.Equal(t, core.StatusReturned, returned.Status, "Marking twice should stay RETURNED")
}
