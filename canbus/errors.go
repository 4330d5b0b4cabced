// canbus/errors.go
package canbus

import "github.com/pkg/errors"

// Failure kinds. The taxonomy is flat: each kind wraps the human-readable
// cause surfaced by the failing backend call. Match with errors.Is against
// the kind; Unwrap exposes the cause chain.
var (
	// ErrTransportUnavailable means no transport backend is registered for
	// the requested config kind (not compiled in, or not imported).
	ErrTransportUnavailable = errors.New("canbus: transport backend unavailable")

	// ErrInterfaceCreate means the backend rejected the open parameters
	// (bad device path, connection refused, unsupported adapter).
	ErrInterfaceCreate = errors.New("canbus: interface creation failed")

	// ErrNotifierCreate means the dispatch loop could not be constructed.
	ErrNotifierCreate = errors.New("canbus: notifier creation failed")

	// ErrListenerRegister means a callback pair could not be attached to
	// the dispatch loop.
	ErrListenerRegister = errors.New("canbus: listener registration failed")

	// ErrClosed indicates the interface or its transport has been closed.
	ErrClosed = errors.New("canbus: closed")

	// ErrNotifierActive is returned by Recv once the notifier owns the
	// receive side of the transport. Polling and asynchronous dispatch are
	// alternative, not simultaneous, consumption modes.
	ErrNotifierActive = errors.New("canbus: receive side owned by notifier")
)

// kindError attaches a failure kind to a backend cause. errors.Is matches
// the kind; the cause remains reachable through Unwrap.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.cause }

func wrapKind(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &kindError{kind: kind, cause: cause}
}

// FrameError reports a frame-level fault delivered by the transport, such as
// an error frame on the wire. The notifier routes these to the error callback
// rather than the rx callback.
type FrameError struct {
	Message *Message
}

func (e *FrameError) Error() string { return e.Message.String() }

type unrecoverableError struct {
	error
}

func (e unrecoverableError) Unwrap() error { return e.error }

// Unrecoverable marks an error as terminal. The notifier uses it to flag
// transport death; CLI-style consumers exit non-zero on it.
func Unrecoverable(err error) error {
	return unrecoverableError{err}
}

// IsRecoverable reports whether err was not marked with Unrecoverable.
func IsRecoverable(err error) bool {
	_, ok := err.(unrecoverableError)
	return !ok
}
