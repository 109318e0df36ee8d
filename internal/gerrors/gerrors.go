// Package gerrors classifies the error kinds a task handler can raise, per
// the propagation rules of the coordination protocol: validation failures
// and state violations are rejected without retry, "not addressed" is a
// silent no-op, missing items and crypto failures are fatal for the task.
package gerrors

import "github.com/pkg/errors"

// Kind is one of the six error categories handlers report at the
// dispatcher boundary.
type Kind int

const (
	// KindValidation covers invalid n/k, bad signatures, ephemeral/peer id
	// mismatches. The one message is rejected; no state changes.
	KindValidation Kind = iota
	// KindNotAddressed means this node could not decrypt the admission
	// nonce, or the hash didn't match. Not an error: normal for every node
	// that isn't the intended recipient.
	KindNotAddressed
	// KindStateViolation is a message arriving in the wrong state, or a
	// duplicate slot fill. Returned as an error; no handler in this module
	// sends a Rejected reply.
	KindStateViolation
	// KindMissingItem is no store item found for an inbound response's
	// task_id. Fatal for that task.
	KindMissingItem
	// KindCrypto is Shamir recovery failure, RSA decrypt failure, witness
	// combine failure. Fatal for the task, no automatic retry.
	KindCrypto
	// KindTransport bubbles up from the transport layer; the task stalls
	// until externally retried.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotAddressed:
		return "not_addressed"
	case KindStateViolation:
		return "state_violation"
	case KindMissingItem:
		return "missing_item"
	case KindCrypto:
		return "crypto"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// TaskError wraps an underlying cause with the task it concerns and the
// kind of failure, so dispatcher code can branch on kind without string
// matching.
type TaskError struct {
	Kind   Kind
	TaskID string
	cause  error
}

func (e *TaskError) Error() string {
	if e.TaskID == "" {
		return e.Kind.String() + ": " + e.cause.Error()
	}
	return e.Kind.String() + " (task " + e.TaskID + "): " + e.cause.Error()
}

func (e *TaskError) Unwrap() error { return e.cause }

// Wrap annotates cause with a kind and task id.
func Wrap(kind Kind, taskID string, cause error) *TaskError {
	return &TaskError{Kind: kind, TaskID: taskID, cause: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted message prefixed to cause.
func Wrapf(kind Kind, taskID string, cause error, format string, args ...interface{}) *TaskError {
	return &TaskError{Kind: kind, TaskID: taskID, cause: errors.Wrapf(cause, format, args...)}
}

// Is reports whether err is a *TaskError of the given kind.
func Is(err error, kind Kind) bool {
	te, ok := err.(*TaskError)
	return ok && te.Kind == kind
}

// NotAddressed builds a not-addressed TaskError. It is never logged as a
// failure by dispatcher code — only routed away silently.
func NotAddressed(taskID string, cause error) *TaskError {
	return Wrap(KindNotAddressed, taskID, cause)
}
