package circulation

import (
	"context"

	"github.com/analisys/circulation-go/core"
)

// LoanRepository is the persistence capability consumed by the Workflow.
// Save must be atomic with respect to the single loan record; the store is
// assumed to provide its own internal concurrency control.
type LoanRepository interface {
	// Save persists the loan, creating it or replacing the stored record with
	// the same id.
	Save(ctx context.Context, loan core.Loan) error

	// FindByID returns the loan with the given id. The boolean reports whether
	// a record was found; a missing record is not an error.
	FindByID(ctx context.Context, id core.LoanIDString) (core.Loan, bool, error)

	// FindAll returns every stored loan.
	FindAll(ctx context.Context) ([]core.Loan, error)
}

// CatalogAvailability is the external catalog capability: query and mutate a
// book's availability flag. It is an unreliable remote dependency - every call
// is subject to network failure and errors must be surfaced, never swallowed.
type CatalogAvailability interface {
	// IsAvailable reports whether the book can currently be lent out.
	// An error means the answer is unknown; callers must not default to "available".
	IsAvailable(ctx context.Context, bookID core.BookIDString) (bool, error)

	// SetAvailability records the book's availability flag in the catalog.
	SetAvailability(ctx context.Context, bookID core.BookIDString, available bool) error
}

// Notification is the wire record accepted by both delivery channels.
type Notification struct {
	TargetUser string `json:"targetUser"`
	Message    string `json:"message"`
}

// NotificationDispatcher exposes two independent, non-overlapping delivery
// channels for loan lifecycle notifications. Channel choice per event type is
// fixed by the Workflow, not configurable per call. Neither channel's delivery
// is awaited or confirmed.
type NotificationDispatcher interface {
	// PublishQueue delivers the record fire-and-forget to a named queue
	// destination, intended for near-real-time consumption.
	PublishQueue(ctx context.Context, notification Notification) error

	// PublishStream appends the record to a named durable, ordered topic,
	// intended for downstream audit and analytics consumers.
	PublishStream(ctx context.Context, notification Notification) error
}
