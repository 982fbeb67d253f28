package circulation

import (
	"context"
	"time"
)

const (
	// WorkflowDurationMetric tracks loan workflow operation duration (OpenTelemetry-compatible).
	WorkflowDurationMetric = "loanworkflow_operation_duration_seconds"

	// WorkflowCallsMetric tracks total loan workflow operation calls.
	WorkflowCallsMetric = "loanworkflow_operation_calls_total"

	// WorkflowIdempotentMetric tracks idempotent close operations.
	WorkflowIdempotentMetric = "loanworkflow_idempotent_operations_total"

	// NotificationPublishFailuresMetric tracks isolated notification publish failures.
	//
	// Labels:
	//   - operation: Workflow operation during which the publish failed
	//   - channel: "queue" or "stream"
	//
	// A non-zero rate means loan state changes succeeded while downstream
	// consumers missed notifications.
	NotificationPublishFailuresMetric = "loanworkflow_notification_publish_failures_total"

	// StatusSuccess indicates successful operation completion.
	StatusSuccess = "success"

	// StatusError indicates an operation processing error.
	StatusError = "error"

	// StatusIdempotent indicates no state change was needed.
	StatusIdempotent = "idempotent"

	// LogMsgOperationStarted is logged when workflow operation processing begins.
	LogMsgOperationStarted = "loan workflow operation started"

	// LogMsgOperationCompleted is logged when workflow operation processing succeeds.
	LogMsgOperationCompleted = "loan workflow operation completed"

	// LogMsgOperationFailed is logged when workflow operation processing fails.
	LogMsgOperationFailed = "loan workflow operation failed"

	// LogMsgPublishFailed is logged when a notification publish fails and is isolated.
	LogMsgPublishFailed = "notification publish failed, loan state change kept"

	// LogAttrOperation identifies the workflow operation in logs.
	LogAttrOperation = "operation"

	// LogAttrLoanID identifies the loan in logs.
	LogAttrLoanID = "loan_id"

	// LogAttrBookID identifies the book in logs.
	LogAttrBookID = "book_id"

	// LogAttrUserID identifies the user in logs.
	LogAttrUserID = "user_id"

	// LogAttrChannel identifies the notification channel in logs.
	LogAttrChannel = "channel"

	// LogAttrStatus identifies the operation outcome in logs.
	LogAttrStatus = "status"

	// LogAttrError carries the error message in logs.
	LogAttrError = "error"

	// LogAttrDurationMS carries the operation duration in milliseconds in logs.
	LogAttrDurationMS = "duration_ms"
)

// Logger interface for operational logging, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// This follows the same dependency-free pattern as MetricsCollector and TracingCollector,
// allowing integration with any logging backend that supports context-based correlation.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting workflow performance and operational metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information from
// workflow operations. Dependency-free so any tracing backend can implement it.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}
