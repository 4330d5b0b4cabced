// slcan/slcan.go

// Package slcan drives serial-line CAN adapters (the slcan ASCII protocol)
// over a serial port.
package slcan

import (
	"bufio"
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/goburrow/serial"
	"github.com/pkg/errors"

	"github.com/tamzrod/canbridge/canbus"
)

func init() {
	canbus.RegisterTransport("slcan", func(cfg canbus.Config) (canbus.Transport, error) {
		c, ok := cfg.(canbus.SLCAN)
		if !ok {
			return nil, errors.Errorf("slcan: unexpected config %T", cfg)
		}
		return Open(c.SerialPort, c.Bitrate)
	})
}

// Adapters enumerate as USB CDC devices; the port speed is fixed and
// unrelated to the CAN bitrate.
const portBaudRate = 115200

// Transport is an slcan adapter on an open serial port.
type Transport struct {
	port io.ReadWriteCloser
	r    *bufio.Reader
	clk  clock.Clock

	wmu sync.Mutex

	once   sync.Once
	closed chan struct{}
}

var _ canbus.Transport = (*Transport)(nil)

// Open opens the serial device and configures the adapter for the given CAN
// bitrate.
func Open(device string, bitrate uint32) (*Transport, error) {
	port, err := serial.Open(&serial.Config{
		Address:  device,
		BaudRate: portBaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	})
	if err != nil {
		return nil, errors.Wrapf(err, "slcan: open %s", device)
	}

	t := NewTransport(port, clock.New())
	if err := t.setup(bitrate); err != nil {
		port.Close()
		return nil, err
	}
	return t, nil
}

// NewTransport wraps an already-open port without running adapter setup.
func NewTransport(port io.ReadWriteCloser, clk clock.Clock) *Transport {
	return &Transport{
		port:   port,
		r:      bufio.NewReader(port),
		clk:    clk,
		closed: make(chan struct{}),
	}
}

// setup closes any stale channel, selects the bitrate and opens the channel.
func (t *Transport) setup(bitrate uint32) error {
	code, ok := bitrateCode[bitrate]
	if !ok {
		return errors.Errorf("slcan: unsupported bitrate %d", bitrate)
	}
	for _, cmd := range [][]byte{
		{'C', cr},
		{'S', code, cr},
		{'O', cr},
	} {
		if err := t.write(cmd); err != nil {
			return errors.Wrap(err, "slcan: adapter setup")
		}
	}
	return nil
}

// Recv blocks until the adapter delivers the next frame line.
func (t *Transport) Recv() (*canbus.Message, error) {
	for {
		line, err := t.readLine()
		if err != nil {
			select {
			case <-t.closed:
				return nil, canbus.ErrClosed
			default:
			}
			return nil, errors.Wrap(err, "slcan: read")
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == bel {
			return nil, errors.New("slcan: command rejected by adapter")
		}
		return parse(line, canbus.Stamp(t.clk.Now()))
	}
}

// readLine returns the next CR-terminated line with the terminator stripped.
func (t *Transport) readLine() ([]byte, error) {
	line, err := t.r.ReadBytes(cr)
	if err != nil {
		return nil, err
	}
	return line[:len(line)-1], nil
}

func (t *Transport) Send(msg *canbus.Message) error {
	raw, err := marshal(msg)
	if err != nil {
		return err
	}
	return t.write(raw)
}

func (t *Transport) write(raw []byte) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	select {
	case <-t.closed:
		return canbus.ErrClosed
	default:
	}
	_, err := t.port.Write(raw)
	return err
}

// Close closes the CAN channel on the adapter, best-effort, then the port.
func (t *Transport) Close() error {
	var err error
	t.once.Do(func() {
		t.wmu.Lock()
		t.port.Write([]byte{'C', cr})
		t.wmu.Unlock()
		close(t.closed)
		err = t.port.Close()
	})
	return err
}
