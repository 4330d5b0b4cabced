// virtual/virtual.go

// Package virtual provides an in-process CAN bus. Every interface opened on
// the same channel name exchanges frames with the others; a sent frame is
// delivered to all endpoints except the sender. Intended for tests and
// simulations.
package virtual

import (
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/tamzrod/canbridge/canbus"
)

func init() {
	canbus.RegisterTransport("virtual", func(cfg canbus.Config) (canbus.Transport, error) {
		c, ok := cfg.(canbus.Virtual)
		if !ok {
			return nil, errors.Errorf("virtual: unexpected config %T", cfg)
		}
		if c.Channel == "" {
			return nil, errors.New("virtual: channel name required")
		}
		return Open(c.Channel), nil
	})
}

var (
	hubsMu sync.Mutex
	hubs   = make(map[string]*Hub)
)

func hubFor(channel string) *Hub {
	hubsMu.Lock()
	defer hubsMu.Unlock()
	h, ok := hubs[channel]
	if !ok {
		h = NewHub()
		hubs[channel] = h
	}
	return h
}

// Hub is one shared medium. Endpoints attached to it broadcast to each
// other.
type Hub struct {
	mu        sync.RWMutex
	endpoints map[*Transport]struct{}
}

func NewHub() *Hub {
	return &Hub{endpoints: make(map[*Transport]struct{})}
}

// Open attaches a new endpoint to the named in-process channel.
func Open(channel string) *Transport {
	return hubFor(channel).Attach()
}

// Attach creates an endpoint on the hub.
func (h *Hub) Attach() *Transport {
	t := &Transport{
		hub:    h,
		ch:     make(chan *canbus.Message, 64),
		closed: make(chan struct{}),
		clk:    clock.New(),
	}
	h.mu.Lock()
	h.endpoints[t] = struct{}{}
	h.mu.Unlock()
	return t
}

// Transport is one endpoint on a hub.
type Transport struct {
	hub *Hub
	ch  chan *canbus.Message
	clk clock.Clock

	once   sync.Once
	closed chan struct{}
}

var _ canbus.Transport = (*Transport)(nil)

// Send broadcasts the frame to every other endpoint on the hub. The
// delivered copy carries a receive timestamp and a normalized DLC.
func (t *Transport) Send(msg *canbus.Message) error {
	select {
	case <-t.closed:
		return canbus.ErrClosed
	default:
	}
	if len(msg.Data) > 8 {
		return errors.Errorf("virtual: payload of %d bytes exceeds 8-byte CAN limit", len(msg.Data))
	}

	delivered := &canbus.Message{
		ArbitrationID: msg.ArbitrationID,
		Data:          append([]byte(nil), msg.Data...),
		IsErrorFrame:  msg.IsErrorFrame,
		Timestamp:     canbus.Stamp(t.clk.Now()),
	}
	dlc := msg.EffectiveDLC()
	delivered.DLC = &dlc

	t.hub.mu.RLock()
	targets := make([]*Transport, 0, len(t.hub.endpoints))
	for ep := range t.hub.endpoints {
		if ep != t {
			targets = append(targets, ep)
		}
	}
	t.hub.mu.RUnlock()

	for _, ep := range targets {
		select {
		case ep.ch <- delivered:
		case <-ep.closed:
		}
	}
	return nil
}

// Recv blocks until another endpoint sends a frame.
func (t *Transport) Recv() (*canbus.Message, error) {
	select {
	case msg := <-t.ch:
		return msg, nil
	case <-t.closed:
		return nil, canbus.ErrClosed
	}
}

// Close detaches the endpoint from its hub.
func (t *Transport) Close() error {
	t.once.Do(func() {
		close(t.closed)
		t.hub.mu.Lock()
		delete(t.hub.endpoints, t)
		t.hub.mu.Unlock()
	})
	return nil
}
