package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/analisys/circulation-go/core"
)

const (
	// DefaultLoanPeriod is the policy constant for how long a book may be kept.
	// The upstream system left the duration unspecified; 14 days is the
	// documented choice here and can be overridden with WithLoanPeriod.
	DefaultLoanPeriod = 14 * 24 * time.Hour

	// DefaultCallTimeout bounds each call to an external collaborator.
	DefaultCallTimeout = 3 * time.Second

	// OperationOpenLoan identifies the open operation in logs, metrics and spans.
	OperationOpenLoan = "OpenLoan"

	// OperationCloseLoan identifies the close operation in logs, metrics and spans.
	OperationCloseLoan = "CloseLoan"

	// OperationListLoans identifies the list operation in logs, metrics and spans.
	OperationListLoans = "ListLoans"

	channelQueue  = "queue"
	channelStream = "stream"

	msgLoanOpenedPrefix = "loan opened: "
	msgLoanClosedPrefix = "loan closed: "
)

var (
	// ErrInvalidLoanPeriod is returned when a non-positive loan period is configured.
	ErrInvalidLoanPeriod = errors.New("loan period must be positive")

	// ErrInvalidCallTimeout is returned when a non-positive call timeout is configured.
	ErrInvalidCallTimeout = errors.New("call timeout must be positive")

	// ErrNilClock is returned when a nil clock is configured.
	ErrNilClock = errors.New("clock must not be nil")

	// ErrNilIDGenerator is returned when a nil loan id generator is configured.
	ErrNilIDGenerator = errors.New("loan id generator must not be nil")
)

// Workflow orchestrates the loan lifecycle: it checks external book
// availability, persists the loan record, updates external availability, and
// emits notifications over two independent channels.
//
// Opening and closing are not atomic across system boundaries (see the package
// documentation). Within one process, a per-book mutual-exclusion scope closes
// the check-then-act race between concurrent opens for the same book;
// cross-process serialization remains delegated to the catalog service.
type Workflow struct {
	loans      LoanRepository
	catalog    CatalogAvailability
	dispatcher NotificationDispatcher

	loanPeriod  time.Duration
	callTimeout time.Duration

	clock     func() time.Time
	newLoanID func() core.LoanIDString

	bookLocks *keyedMutex

	logger           Logger
	contextualLogger ContextualLogger
	metrics          MetricsCollector
	tracing          TracingCollector
}

// Option defines a functional option for configuring a Workflow.
type Option func(*Workflow) error

// WithLoanPeriod overrides the default loan period policy constant.
func WithLoanPeriod(period time.Duration) Option {
	return func(w *Workflow) error {
		if period <= 0 {
			return ErrInvalidLoanPeriod
		}

		w.loanPeriod = period

		return nil
	}
}

// WithCallTimeout overrides the bounded timeout applied to each external call.
func WithCallTimeout(timeout time.Duration) Option {
	return func(w *Workflow) error {
		if timeout <= 0 {
			return ErrInvalidCallTimeout
		}

		w.callTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the Workflow.
func WithLogger(logger Logger) Option {
	return func(w *Workflow) error {
		w.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Workflow.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(w *Workflow) error {
		w.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Workflow.
func WithMetrics(collector MetricsCollector) Option {
	return func(w *Workflow) error {
		w.metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Workflow.
func WithTracing(collector TracingCollector) Option {
	return func(w *Workflow) error {
		w.tracing = collector
		return nil
	}
}

// WithClock sets the time source used for loan and due dates.
// Intended for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Workflow) error {
		if clock == nil {
			return ErrNilClock
		}

		w.clock = clock

		return nil
	}
}

// WithIDGenerator sets the loan id generator.
// Intended for deterministic tests; defaults to random UUIDs.
func WithIDGenerator(generate func() core.LoanIDString) Option {
	return func(w *Workflow) error {
		if generate == nil {
			return ErrNilIDGenerator
		}

		w.newLoanID = generate

		return nil
	}
}

// NewWorkflow creates a Workflow with the given collaborators and optional configuration.
func NewWorkflow(
	loans LoanRepository,
	catalog CatalogAvailability,
	dispatcher NotificationDispatcher,
	options ...Option,
) (Workflow, error) {

	if loans == nil {
		return Workflow{}, ErrNilLoanRepository
	}

	if catalog == nil {
		return Workflow{}, ErrNilCatalog
	}

	if dispatcher == nil {
		return Workflow{}, ErrNilDispatcher
	}

	w := Workflow{
		loans:       loans,
		catalog:     catalog,
		dispatcher:  dispatcher,
		loanPeriod:  DefaultLoanPeriod,
		callTimeout: DefaultCallTimeout,
		clock:       time.Now,
		newLoanID:   func() core.LoanIDString { return uuid.New().String() },
		bookLocks:   newKeyedMutex(),
	}

	for _, option := range options {
		if err := option(&w); err != nil {
			return Workflow{}, err
		}
	}

	return w, nil
}

// OpenLoan lends the book to the user.
//
// It checks availability with the catalog, persists a new ACTIVE loan, flags
// the book as unavailable, and publishes a notification on the queue channel.
// The loan record and the availability update are intended as one unit of work
// but target different systems: if the availability update fails after the
// loan record commits, the systems diverge (surfaced as an error, not healed).
//
// Notification publishing is best-effort: a publish failure is logged and does
// not undo or fail the loan state change.
func (w Workflow) OpenLoan(ctx context.Context, userID core.UserIDString, bookID core.BookIDString) error {
	start := time.Now()
	ctx, span := w.startSpan(ctx, OperationOpenLoan, map[string]string{
		LogAttrUserID: userID,
		LogAttrBookID: bookID,
	})
	w.logStart(ctx, OperationOpenLoan)

	err := w.openLoan(ctx, userID, bookID)
	w.finishOperation(ctx, OperationOpenLoan, start, span, false, err)

	return err
}

func (w Workflow) openLoan(ctx context.Context, userID core.UserIDString, bookID core.BookIDString) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	if bookID == "" {
		return ErrEmptyBookID
	}

	w.bookLocks.Lock(bookID)
	defer w.bookLocks.Unlock(bookID)

	available, availErr := w.isAvailable(ctx, bookID)
	if availErr != nil {
		return errors.Join(ErrExternalServiceFailure, availErr)
	}

	if !available {
		return fmt.Errorf("%w: %s", ErrBookUnavailable, bookID)
	}

	now := w.clock()

	loan, buildErr := core.BuildLoan(w.newLoanID(), userID, bookID, now, now.Add(w.loanPeriod))
	if buildErr != nil {
		return buildErr
	}

	if saveErr := w.loans.Save(ctx, loan); saveErr != nil {
		return saveErr
	}

	if setErr := w.setAvailability(ctx, bookID, false); setErr != nil {
		return errors.Join(ErrExternalServiceFailure, setErr)
	}

	w.publish(ctx, OperationOpenLoan, channelQueue, Notification{
		TargetUser: userID,
		Message:    msgLoanOpenedPrefix + bookID,
	})

	return nil
}

// CloseLoan returns the book of the given loan.
//
// It flips the loan to RETURNED, flags the book as available again, and
// publishes a notification on the stream channel. Closing an already-RETURNED
// loan is an idempotent no-op: nothing is written, nothing is published, and
// the call succeeds.
func (w Workflow) CloseLoan(ctx context.Context, loanID core.LoanIDString) error {
	start := time.Now()
	ctx, span := w.startSpan(ctx, OperationCloseLoan, map[string]string{
		LogAttrLoanID: loanID,
	})
	w.logStart(ctx, OperationCloseLoan)

	idempotent, err := w.closeLoan(ctx, loanID)
	w.finishOperation(ctx, OperationCloseLoan, start, span, idempotent, err)

	return err
}

func (w Workflow) closeLoan(ctx context.Context, loanID core.LoanIDString) (bool, error) {
	if loanID == "" {
		return false, ErrEmptyLoanID
	}

	loan, found, findErr := w.loans.FindByID(ctx, loanID)
	if findErr != nil {
		return false, findErr
	}

	if !found {
		return false, fmt.Errorf("%w: %s", ErrLoanNotFound, loanID)
	}

	if loan.IsReturned() {
		return true, nil // idempotent - the loan is already closed, no state change needed
	}

	if saveErr := w.loans.Save(ctx, loan.MarkReturned()); saveErr != nil {
		return false, saveErr
	}

	if setErr := w.setAvailability(ctx, loan.BookID, true); setErr != nil {
		return false, errors.Join(ErrExternalServiceFailure, setErr)
	}

	w.publish(ctx, OperationCloseLoan, channelStream, Notification{
		TargetUser: loan.UserID,
		Message:    msgLoanClosedPrefix + loan.BookID,
	})

	return false, nil
}

// ListLoans returns every stored loan, active and past, without filtering or
// pagination. Acceptable for the current scope; a growing system would page.
func (w Workflow) ListLoans(ctx context.Context) ([]core.Loan, error) {
	start := time.Now()
	ctx, span := w.startSpan(ctx, OperationListLoans, nil)
	w.logStart(ctx, OperationListLoans)

	loans, err := w.loans.FindAll(ctx)
	w.finishOperation(ctx, OperationListLoans, start, span, false, err)

	return loans, err
}

// isAvailable queries the catalog with a bounded timeout.
func (w Workflow) isAvailable(ctx context.Context, bookID core.BookIDString) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	return w.catalog.IsAvailable(callCtx, bookID)
}

// setAvailability updates the catalog with a bounded timeout.
func (w Workflow) setAvailability(ctx context.Context, bookID core.BookIDString, available bool) error {
	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	return w.catalog.SetAvailability(callCtx, bookID, available)
}

// publish delivers a notification on the given channel with a bounded timeout.
// Failures are isolated: logged and counted, never propagated, so a messaging
// fault cannot undo a successful loan state change.
func (w Workflow) publish(ctx context.Context, operation string, channel string, notification Notification) {
	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	var publishErr error

	switch channel {
	case channelStream:
		publishErr = w.dispatcher.PublishStream(callCtx, notification)
	default:
		publishErr = w.dispatcher.PublishQueue(callCtx, notification)
	}

	if publishErr == nil {
		return
	}

	if w.metrics != nil {
		w.metrics.IncrementCounter(NotificationPublishFailuresMetric, map[string]string{
			LogAttrOperation: operation,
			LogAttrChannel:   channel,
		})
	}

	if w.contextualLogger != nil {
		w.contextualLogger.WarnContext(ctx, LogMsgPublishFailed,
			LogAttrOperation, operation,
			LogAttrChannel, channel,
			LogAttrError, publishErr.Error())
		return
	}

	if w.logger != nil {
		w.logger.Warn(LogMsgPublishFailed,
			LogAttrOperation, operation,
			LogAttrChannel, channel,
			LogAttrError, publishErr.Error())
	}
}

/*** Observability helper methods ***/

func (w Workflow) startSpan(ctx context.Context, operation string, attrs map[string]string) (context.Context, SpanContext) {
	if w.tracing == nil {
		return ctx, nil
	}

	spanAttrs := map[string]string{LogAttrOperation: operation}
	for key, value := range attrs {
		spanAttrs[key] = value
	}

	return w.tracing.StartSpan(ctx, "loanworkflow."+operation, spanAttrs)
}

func (w Workflow) logStart(ctx context.Context, operation string) {
	if w.contextualLogger != nil {
		w.contextualLogger.DebugContext(ctx, LogMsgOperationStarted, LogAttrOperation, operation)
		return
	}

	if w.logger != nil {
		w.logger.Debug(LogMsgOperationStarted, LogAttrOperation, operation)
	}
}

func (w Workflow) finishOperation(
	ctx context.Context,
	operation string,
	start time.Time,
	span SpanContext,
	idempotent bool,
	err error,
) {

	duration := time.Since(start)
	status := operationStatus(idempotent, err)

	if w.metrics != nil {
		labels := map[string]string{
			LogAttrOperation: operation,
			LogAttrStatus:    status,
		}

		w.metrics.RecordDuration(WorkflowDurationMetric, duration, labels)
		w.metrics.IncrementCounter(WorkflowCallsMetric, labels)

		if idempotent {
			w.metrics.IncrementCounter(WorkflowIdempotentMetric, map[string]string{LogAttrOperation: operation})
		}
	}

	if w.tracing != nil && span != nil {
		w.tracing.FinishSpan(span, status, map[string]string{LogAttrOperation: operation})
	}

	w.logFinish(ctx, operation, status, duration, err)
}

func (w Workflow) logFinish(ctx context.Context, operation string, status string, duration time.Duration, err error) {
	durationMS := float64(duration.Nanoseconds()) / 1e6

	if err != nil {
		if w.contextualLogger != nil {
			w.contextualLogger.ErrorContext(ctx, LogMsgOperationFailed,
				LogAttrOperation, operation,
				LogAttrStatus, status,
				LogAttrError, err.Error(),
				LogAttrDurationMS, durationMS)
			return
		}

		if w.logger != nil {
			w.logger.Error(LogMsgOperationFailed,
				LogAttrOperation, operation,
				LogAttrStatus, status,
				LogAttrError, err.Error(),
				LogAttrDurationMS, durationMS)
		}

		return
	}

	if w.contextualLogger != nil {
		w.contextualLogger.InfoContext(ctx, LogMsgOperationCompleted,
			LogAttrOperation, operation,
			LogAttrStatus, status,
			LogAttrDurationMS, durationMS)
		return
	}

	if w.logger != nil {
		w.logger.Info(LogMsgOperationCompleted,
			LogAttrOperation, operation,
			LogAttrStatus, status,
			LogAttrDurationMS, durationMS)
	}
}

func operationStatus(idempotent bool, err error) string {
	switch {
	case err != nil:
		return StatusError
	case idempotent:
		return StatusIdempotent
	default:
		return StatusSuccess
	}
}
