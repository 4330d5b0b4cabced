// socketcand/socketcand.go

// Package socketcand drives a CAN channel relayed over TCP by a socketcand
// daemon. The protocol is ASCII items delimited by '<' and '>':
//
//	< hi >                                   greeting from the daemon
//	< open can0 >                            select the relayed channel
//	< rawmode >                              switch to raw frame delivery
//	< frame 123 1699999999.123456 DEADBEEF > inbound frame
//	< send 123 4 DEADBEEF >                  outbound frame
//	< error ... >                            bus error report
package socketcand

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tamzrod/canbridge/canbus"
)

func init() {
	canbus.RegisterTransport("socketcand", func(cfg canbus.Config) (canbus.Transport, error) {
		c, ok := cfg.(canbus.Socketcand)
		if !ok {
			return nil, errors.Errorf("socketcand: unexpected config %T", cfg)
		}
		return Open(c.Host, c.Port, c.Channel)
	})
}

const dialTimeout = 10 * time.Second

// Transport is one relayed CAN channel on a socketcand connection.
type Transport struct {
	conn net.Conn
	r    *bufio.Reader

	wmu sync.Mutex

	once   sync.Once
	closed chan struct{}
}

var _ canbus.Transport = (*Transport)(nil)

// Open dials the daemon and switches the connection into raw mode on the
// given channel.
func Open(host string, port uint16, channel string) (*Transport, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "socketcand: dial %s", addr)
	}

	t := &Transport{
		conn:   conn,
		r:      bufio.NewReader(conn),
		closed: make(chan struct{}),
	}

	if err := t.handshake(channel); err != nil {
		conn.Close()
		return nil, err
	}
	return t, nil
}

func (t *Transport) handshake(channel string) error {
	// The daemon greets first.
	item, err := t.readItem()
	if err != nil {
		return errors.Wrap(err, "socketcand: greeting")
	}
	if len(item) == 0 || item[0] != "hi" {
		return errors.Errorf("socketcand: unexpected greeting %v", item)
	}
	if err := t.writeItem(fmt.Sprintf("open %s", channel)); err != nil {
		return errors.Wrapf(err, "socketcand: open %s", channel)
	}
	if err := t.writeItem("rawmode"); err != nil {
		return errors.Wrap(err, "socketcand: rawmode")
	}
	return nil
}

// Recv blocks until the daemon relays the next frame or error item.
// Non-frame items (acknowledgements, statistics) are skipped.
func (t *Transport) Recv() (*canbus.Message, error) {
	for {
		item, err := t.readItem()
		if err != nil {
			select {
			case <-t.closed:
				return nil, canbus.ErrClosed
			default:
			}
			return nil, errors.Wrap(err, "socketcand: read")
		}
		if len(item) == 0 {
			continue
		}

		switch item[0] {
		case "frame":
			return parseFrame(item)
		case "error":
			// The daemon reports a bus error; surface it as an error frame.
			return &canbus.Message{IsErrorFrame: true, Timestamp: stampNow()}, nil
		default:
			continue
		}
	}
}

// parseFrame decodes "< frame <hexid> <sec.usec> <hexdata> >" fields.
func parseFrame(item []string) (*canbus.Message, error) {
	if len(item) < 3 {
		return nil, errors.Errorf("socketcand: truncated frame item %v", item)
	}

	id, err := strconv.ParseUint(item[1], 16, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "socketcand: bad id %q", item[1])
	}
	ts, err := strconv.ParseFloat(item[2], 64)
	if err != nil {
		return nil, errors.Wrapf(err, "socketcand: bad timestamp %q", item[2])
	}

	var data []byte
	if len(item) > 3 {
		// Data arrives as contiguous hex; tolerate space-separated bytes.
		data, err = hex.DecodeString(strings.Join(item[3:], ""))
		if err != nil {
			return nil, errors.Wrapf(err, "socketcand: bad payload in %v", item)
		}
	} else {
		data = []byte{}
	}
	if len(data) > 8 {
		return nil, errors.Errorf("socketcand: payload of %d bytes exceeds 8-byte CAN limit", len(data))
	}

	dlc := uint8(len(data))
	return &canbus.Message{
		ArbitrationID: uint32(id),
		Data:          data,
		DLC:           &dlc,
		Timestamp:     &ts,
	}, nil
}

func (t *Transport) Send(msg *canbus.Message) error {
	if len(msg.Data) > 8 {
		return errors.Errorf("socketcand: payload of %d bytes exceeds 8-byte CAN limit", len(msg.Data))
	}
	return t.writeItem(fmt.Sprintf("send %X %d %X",
		msg.ArbitrationID, msg.EffectiveDLC(), msg.Data))
}

// readItem returns the whitespace-split fields of the next "< ... >" item.
func (t *Transport) readItem() ([]string, error) {
	// Scan to the opening bracket, then collect until the closing one.
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == '<' {
			break
		}
	}
	body, err := t.r.ReadString('>')
	if err != nil {
		return nil, err
	}
	return strings.Fields(body[:len(body)-1]), nil
}

func (t *Transport) writeItem(body string) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	select {
	case <-t.closed:
		return canbus.ErrClosed
	default:
	}
	_, err := fmt.Fprintf(t.conn, "< %s >", body)
	return err
}

func (t *Transport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.closed)
		err = t.conn.Close()
	})
	return err
}

func stampNow() *float64 {
	return canbus.Stamp(time.Now())
}
