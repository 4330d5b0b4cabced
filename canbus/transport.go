// canbus/transport.go
package canbus

import "sync"

// Transport is the recv/send contract the Interface consumes from a backend.
// The wire protocol is entirely the backend's concern.
//
// Recv blocks until a frame is available. After Close, pending and subsequent
// calls must fail with ErrClosed (or an error wrapping it). Implementations
// must allow Send to proceed while a Recv is blocked.
type Transport interface {
	Recv() (*Message, error)
	Send(*Message) error
	Close() error
}

// TransportFactory opens a concrete transport for a config of the kind it
// was registered under.
type TransportFactory func(cfg Config) (Transport, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]TransportFactory)
)

// RegisterTransport makes a backend available under the given config kind.
// Backend packages call this from init(); importing a backend package is what
// makes its kind openable.
func RegisterTransport(kind string, factory TransportFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

func lookupTransport(kind string) TransportFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[kind]
}
