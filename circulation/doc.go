// Package circulation implements the loan workflow for book circulation
// in a public library: opening a loan, closing it on return, and listing loans.
//
// The Workflow is the only component with multi-step control flow and external
// dependencies. It consumes narrow capability interfaces (LoanRepository,
// CatalogAvailability, NotificationDispatcher) so it stays agnostic of
// persistence drivers and transport. Collaborators are injected explicitly at
// construction time; there is no runtime discovery.
//
// The compound open/close operations are not atomic across system boundaries:
// the loan record, the catalog's availability flag, and the notification
// channels live in separate systems with no two-phase commit and no
// compensating rollback. If the availability update fails after the loan
// record commits, the two systems diverge until manually reconciled.
package circulation
