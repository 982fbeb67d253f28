package circulation

import "errors"

var (
	// ErrBookUnavailable is returned by OpenLoan when the catalog reports the
	// book as not available. No state is mutated in that case.
	ErrBookUnavailable = errors.New("book is not available")

	// ErrLoanNotFound is returned when an operation references a loan id
	// that does not exist in the repository. No state is mutated.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrExternalServiceFailure wraps any network or timeout failure from the
	// catalog collaborator. It aborts the in-progress operation without a
	// compensating rollback of already-committed steps.
	ErrExternalServiceFailure = errors.New("external service failure")

	// ErrEmptyUserID is returned when OpenLoan is called with an empty user identifier.
	ErrEmptyUserID = errors.New("user id must not be empty")

	// ErrEmptyBookID is returned when OpenLoan is called with an empty book identifier.
	ErrEmptyBookID = errors.New("book id must not be empty")

	// ErrEmptyLoanID is returned when CloseLoan is called with an empty loan identifier.
	ErrEmptyLoanID = errors.New("loan id must not be empty")

	// ErrNilLoanRepository is returned when a Workflow is constructed without a repository.
	ErrNilLoanRepository = errors.New("loan repository must not be nil")

	// ErrNilCatalog is returned when a Workflow is constructed without a catalog collaborator.
	ErrNilCatalog = errors.New("catalog availability must not be nil")

	// ErrNilDispatcher is returned when a Workflow is constructed without a notification dispatcher.
	ErrNilDispatcher = errors.New("notification dispatcher must not be nil")
)
