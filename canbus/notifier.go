// canbus/notifier.go
package canbus

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Listener is the fixed capability invoked by the dispatch loop: a frame
// was received, or an error occurred. Implement it directly or use
// Callbacks to wrap a pair of function values.
type Listener interface {
	OnMessage(*Message)
	OnError(error)
}

// Callbacks adapts two function values into a Listener. Either field may be
// nil; a nil field is skipped.
type Callbacks struct {
	Rx  func(*Message)
	Err func(error)
}

func (c Callbacks) OnMessage(m *Message) {
	if c.Rx != nil {
		c.Rx(m)
	}
}

func (c Callbacks) OnError(err error) {
	if c.Err != nil {
		c.Err(err)
	}
}

// Notifier is the background dispatch loop bound to an interface's
// transport. One goroutine continuously pulls frames and fans them out to
// every registered listener in registration order; per-listener delivery
// order equals receipt order. No ordering is guaranteed across listeners.
//
// The loop is created lazily by Interface.Notifier and stops when Stop is
// called or when the transport dies. On transport death it delivers one
// Unrecoverable error to every listener and exits.
type Notifier struct {
	tr Transport

	mu        sync.Mutex
	listeners []Listener
	stopped   bool

	stop chan struct{}
	done chan struct{}
}

func newNotifier(tr Transport) *Notifier {
	n := &Notifier{
		tr:   tr,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go n.run()
	return n
}

// Add registers a listener with the running loop. Frames received before
// registration are not replayed.
func (n *Notifier) Add(l Listener) error {
	if l == nil {
		return errors.New("nil listener")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return errors.New("notifier is stopped")
	}
	n.listeners = append(n.listeners, l)
	return nil
}

// Stop signals the dispatch loop to exit. The signal is observed between
// dispatch iterations; a Recv already blocked on the transport unblocks when
// the transport is closed (Interface.Close does both, in that order).
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	n.stopped = true
	close(n.stop)
}

// Wait blocks until the dispatch goroutine has exited.
func (n *Notifier) Wait() {
	<-n.done
}

func (n *Notifier) run() {
	defer close(n.done)
	for {
		msg, err := n.tr.Recv()

		select {
		case <-n.stop:
			return
		default:
		}

		if err != nil {
			if terminal(err) {
				n.broadcastErr(Unrecoverable(err))
				return
			}
			n.broadcastErr(err)
			continue
		}

		if msg.IsErrorFrame {
			n.broadcastErr(&FrameError{Message: msg})
			continue
		}

		n.broadcast(msg)
	}
}

func (n *Notifier) snapshot() []Listener {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Listener, len(n.listeners))
	copy(out, n.listeners)
	return out
}

func (n *Notifier) broadcast(msg *Message) {
	for _, l := range n.snapshot() {
		l.OnMessage(msg)
	}
}

func (n *Notifier) broadcastErr(err error) {
	for _, l := range n.snapshot() {
		l.OnError(err)
	}
}

// terminal reports whether a transport error means the handle is dead and
// the loop cannot continue.
func terminal(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe)
}
