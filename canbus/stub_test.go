// canbus/stub_test.go
package canbus

import (
	"sync"
)

// stubConfig selects a test-registered backend.
type stubConfig struct {
	kind string
}

func (c stubConfig) Kind() string { return c.kind }
func (stubConfig) isConfig()      {}

type recvResult struct {
	msg *Message
	err error
}

// stubTransport is a scriptable in-memory transport.
type stubTransport struct {
	recv chan recvResult

	mu   sync.Mutex
	sent []*Message

	once   sync.Once
	closed chan struct{}
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		recv:   make(chan recvResult, 64),
		closed: make(chan struct{}),
	}
}

func (s *stubTransport) push(msg *Message) { s.recv <- recvResult{msg: msg} }
func (s *stubTransport) pushErr(err error) { s.recv <- recvResult{err: err} }

func (s *stubTransport) Recv() (*Message, error) {
	select {
	case res := <-s.recv:
		return res.msg, res.err
	case <-s.closed:
		return nil, ErrClosed
	}
}

func (s *stubTransport) Send(msg *Message) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubTransport) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *stubTransport) sentFrames() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.sent))
	copy(out, s.sent)
	return out
}
