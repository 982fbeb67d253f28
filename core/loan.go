package core

import (
	"errors"
	"time"
)

// LoanStatus represents the lifecycle state of a Loan.
type LoanStatus string

const (
	// StatusActive marks a loan whose book is currently out with the user.
	StatusActive LoanStatus = "ACTIVE"

	// StatusReturned marks a loan whose book has been returned. Terminal state.
	StatusReturned LoanStatus = "RETURNED"
)

var (
	// ErrEmptyLoanID is returned when a loan is built with an empty loan identifier.
	ErrEmptyLoanID = errors.New("loan id must not be empty")

	// ErrEmptyUserID is returned when a loan is built with an empty user identifier.
	ErrEmptyUserID = errors.New("user id must not be empty")

	// ErrEmptyBookID is returned when a loan is built with an empty book identifier.
	ErrEmptyBookID = errors.New("book id must not be empty")

	// ErrDueDateBeforeLoanDate is returned when a loan is built with a due date before the loan date.
	ErrDueDateBeforeLoanDate = errors.New("due date must not be before loan date")
)

// Loan represents one lending event: exactly one user and one book.
// The ID never changes after creation and the status only moves forward.
type Loan struct {
	ID       LoanIDString
	UserID   UserIDString
	BookID   BookIDString
	LoanDate Timestamp
	DueDate  Timestamp
	Status   LoanStatus
}

// BuildLoan creates a new active Loan with the provided parameters.
// It validates that all identifiers are non-empty and that the due date
// does not precede the loan date.
func BuildLoan(
	id LoanIDString,
	userID UserIDString,
	bookID BookIDString,
	loanDate time.Time,
	dueDate time.Time,
) (Loan, error) {

	if id == "" {
		return Loan{}, ErrEmptyLoanID
	}

	if userID == "" {
		return Loan{}, ErrEmptyUserID
	}

	if bookID == "" {
		return Loan{}, ErrEmptyBookID
	}

	normalizedLoanDate := ToTimestamp(loanDate)
	normalizedDueDate := ToTimestamp(dueDate)

	if normalizedDueDate.Before(normalizedLoanDate) {
		return Loan{}, ErrDueDateBeforeLoanDate
	}

	return Loan{
		ID:       id,
		UserID:   userID,
		BookID:   bookID,
		LoanDate: normalizedLoanDate,
		DueDate:  normalizedDueDate,
		Status:   StatusActive,
	}, nil
}

// MarkReturned returns a copy of the loan in the RETURNED state.
// The transition is monotonic: marking an already returned loan is a no-op.
func (l Loan) MarkReturned() Loan {
	l.Status = StatusReturned
	return l
}

// IsReturned reports whether the loan has reached its terminal state.
func (l Loan) IsReturned() bool {
	return l.Status == StatusReturned
}
