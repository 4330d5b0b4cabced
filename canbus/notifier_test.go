// canbus/notifier_test.go
package canbus

import (
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder collects everything a listener sees, in order.
type recorder struct {
	mu   sync.Mutex
	msgs []*Message
	errs []error
}

func (r *recorder) OnMessage(m *Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func newTestNotifier(t *testing.T) (*Notifier, *stubTransport) {
	t.Helper()
	tr := newStubTransport()
	n := newNotifier(tr)
	t.Cleanup(func() {
		n.Stop()
		tr.Close()
		n.Wait()
	})
	return n, tr
}

func frame(id uint32, data ...byte) *Message {
	dlc := uint8(len(data))
	return &Message{ArbitrationID: id, Data: data, DLC: &dlc, Timestamp: f64(1.0)}
}

func TestNotifierFansOutToAllListenersInOrder(t *testing.T) {
	n, tr := newTestNotifier(t)

	a := &recorder{}
	b := &recorder{}
	require.NoError(t, n.Add(a))
	require.NoError(t, n.Add(b))

	frames := []*Message{
		frame(0x100, 1),
		frame(0x200, 2),
		frame(0x300, 3),
	}
	for _, f := range frames {
		tr.push(f)
	}

	for _, r := range []*recorder{a, b} {
		r := r
		require.Eventually(t, func() bool {
			return len(r.messages()) == len(frames)
		}, time.Second, time.Millisecond)
		assert.Equal(t, frames, r.messages())
		assert.Empty(t, r.errors())
	}
}

func TestNotifierRoutesErrorFramesToErrorCallback(t *testing.T) {
	n, tr := newTestNotifier(t)

	r := &recorder{}
	require.NoError(t, n.Add(r))

	tr.push(&Message{IsErrorFrame: true, Timestamp: f64(4.5)})

	require.Eventually(t, func() bool {
		return len(r.errors()) == 1
	}, time.Second, time.Millisecond)

	assert.Empty(t, r.messages())
	var fe *FrameError
	require.ErrorAs(t, r.errors()[0], &fe)
	assert.True(t, fe.Message.IsErrorFrame)
}

func TestNotifierSurvivesRecoverableErrors(t *testing.T) {
	n, tr := newTestNotifier(t)

	r := &recorder{}
	require.NoError(t, n.Add(r))

	cause := pkgerrors.New("malformed frame")
	tr.pushErr(cause)
	tr.push(frame(0x42, 0xAA))

	require.Eventually(t, func() bool {
		return len(r.messages()) == 1 && len(r.errors()) == 1
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, r.errors()[0], cause)
	assert.True(t, IsRecoverable(r.errors()[0]))
	assert.Equal(t, uint32(0x42), r.messages()[0].ArbitrationID)
}

func TestNotifierStopsOnTransportDeath(t *testing.T) {
	tr := newStubTransport()
	n := newNotifier(tr)

	r := &recorder{}
	require.NoError(t, n.Add(r))

	tr.Close()
	n.Wait()

	errs := r.errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrClosed)
	assert.False(t, IsRecoverable(errs[0]))

	// The loop is gone; further registrations are still accepted but a
	// stopped notifier rejects them only after Stop.
	n.Stop()
	assert.Error(t, n.Add(r))
}

func TestNotifierStopSuppressesDispatch(t *testing.T) {
	tr := newStubTransport()
	n := newNotifier(tr)

	r := &recorder{}
	require.NoError(t, n.Add(r))

	n.Stop()
	tr.push(frame(0x1, 1))
	n.Wait()
	tr.Close()

	assert.Empty(t, r.messages())
	assert.Empty(t, r.errors())
}

func TestNotifierViaInterfaceSharesOneLoop(t *testing.T) {
	iface, tr := newStubInterface(t, "stub-shared-loop")

	a := &recorder{}
	b := &recorder{}
	require.NoError(t, iface.RegisterRxCallback(a.OnMessage, a.OnError))
	require.NoError(t, iface.RegisterRxCallback(b.OnMessage, b.OnError))

	n1, err := iface.Notifier()
	require.NoError(t, err)
	n2, err := iface.Notifier()
	require.NoError(t, err)
	assert.Same(t, n1, n2)

	tr.push(frame(0x10, 0xDE))
	tr.push(frame(0x20, 0xAD))

	for _, r := range []*recorder{a, b} {
		r := r
		require.Eventually(t, func() bool {
			return len(r.messages()) == 2
		}, time.Second, time.Millisecond)
		assert.Equal(t, uint32(0x10), r.messages()[0].ArbitrationID)
		assert.Equal(t, uint32(0x20), r.messages()[1].ArbitrationID)
	}
}

func TestCallbacksSkipNilFields(t *testing.T) {
	// Zero-value Callbacks must be safe to invoke.
	var c Callbacks
	c.OnMessage(frame(0x1))
	c.OnError(pkgerrors.New("x"))
}
