// canbus/interface.go
package canbus

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
)

// Interface owns an opened CAN transport handle and exposes synchronous
// Recv/Send plus asynchronous callback registration via its notifier.
//
// The handle is a scarce, exclusively-owned resource: only one Interface
// should hold a given device at a time. Send may be called concurrently from
// multiple goroutines; Recv is single-consumer and mutually exclusive with
// the notifier (see ErrNotifierActive).
type Interface struct {
	cfg  Config
	name string
	tr   Transport

	// txMu serializes Send so concurrently submitted frames never
	// interleave on the handle. It is never held across Recv.
	txMu sync.Mutex

	mu       sync.Mutex
	notifier *Notifier
	closed   bool
}

// Options tune the opened interface. The zero value is ready to use.
type Options struct {
	// Logger, when set, logs frame traffic on the transport at LogLevel.
	Logger   *slog.Logger
	LogLevel slog.Level
}

// New opens the backend selected by cfg.
//
// It fails with ErrTransportUnavailable when no backend is registered for
// the config kind, and with ErrInterfaceCreate when the backend rejects the
// parameters.
func New(cfg Config) (*Interface, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions is New with explicit options.
func NewWithOptions(cfg Config, opts Options) (*Interface, error) {
	if cfg == nil {
		return nil, wrapKind(ErrInterfaceCreate, errors.New("nil config"))
	}

	factory := lookupTransport(cfg.Kind())
	if factory == nil {
		return nil, wrapKind(ErrTransportUnavailable,
			errors.Errorf("no transport registered for %q", cfg.Kind()))
	}

	tr, err := factory(cfg)
	if err != nil {
		return nil, wrapKind(ErrInterfaceCreate, err)
	}

	if opts.Logger != nil {
		tr = NewLoggedTransport(tr, opts.Logger, opts.LogLevel, LogAll)
	}

	return &Interface{
		cfg:  cfg,
		name: displayName(cfg),
		tr:   tr,
	}, nil
}

// Config returns the configuration the interface was opened with.
func (i *Interface) Config() Config { return i.cfg }

// Name returns a human-readable identifier for the opened device.
func (i *Interface) Name() string { return i.name }

// Recv blocks the calling goroutine until the next frame arrives and returns
// it fully populated, including the backend timestamp. There is no timeout;
// callers needing bounded waits must layer their own.
//
// Once the notifier has been started, Recv fails with ErrNotifierActive.
func (i *Interface) Recv() (*Message, error) {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil, ErrClosed
	}
	if i.notifier != nil {
		i.mu.Unlock()
		return nil, ErrNotifierActive
	}
	i.mu.Unlock()

	return i.tr.Recv()
}

// Send constructs a frame with the given arbitration id and payload, sets
// the DLC from the payload length, and transmits it synchronously. A
// transmit failure surfaces as the returned error; no retry is attempted.
func (i *Interface) Send(id uint32, data []byte) error {
	if len(data) > 8 {
		return errors.Errorf("payload of %d bytes exceeds 8-byte CAN limit", len(data))
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return ErrClosed
	}
	i.mu.Unlock()

	dlc := uint8(len(data))
	msg := &Message{
		ArbitrationID: id,
		Data:          data,
		DLC:           &dlc,
	}

	i.txMu.Lock()
	defer i.txMu.Unlock()
	return i.tr.Send(msg)
}

// Notifier returns the interface's dispatch loop, creating it on first use.
// There is at most one loop per interface; registrations share it instead of
// spawning redundant consumers of the transport.
func (i *Interface) Notifier() (*Notifier, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, wrapKind(ErrNotifierCreate, ErrClosed)
	}
	if i.notifier == nil {
		i.notifier = newNotifier(i.tr)
	}
	return i.notifier, nil
}

// RegisterRxCallback attaches a callback pair to the dispatch loop. onRx is
// invoked with each received frame, onErr with each transport error, both on
// the background dispatch goroutine and in receipt order. Both callbacks are
// required so transport errors are never silently dropped.
//
// Callbacks must be safe to run concurrently with the registering goroutine
// and should not block: a slow callback delays delivery to every listener
// sharing the loop.
func (i *Interface) RegisterRxCallback(onRx func(*Message), onErr func(error)) error {
	if onRx == nil || onErr == nil {
		return wrapKind(ErrListenerRegister, errors.New("both rx and error callbacks are required"))
	}
	n, err := i.Notifier()
	if err != nil {
		return err
	}
	if err := n.Add(Callbacks{Rx: onRx, Err: onErr}); err != nil {
		return wrapKind(ErrListenerRegister, err)
	}
	return nil
}

// RecvSpawn is the convenience form of RegisterRxCallback taking only the
// success callback. Transport errors are logged through slog instead of
// being dropped.
func (i *Interface) RecvSpawn(onRx func(*Message)) error {
	logger := slog.Default()
	return i.RegisterRxCallback(onRx, func(err error) {
		logger.Error("canbus dispatch error", "iface", i.name, "error", err)
	})
}

// Close stops the notifier, if any, and releases the transport handle.
// It is idempotent.
func (i *Interface) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	n := i.notifier
	i.mu.Unlock()

	if n != nil {
		n.Stop()
	}
	err := i.tr.Close()
	if n != nil {
		n.Wait()
	}
	return err
}
