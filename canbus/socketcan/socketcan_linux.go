//go:build linux

// socketcan/socketcan_linux.go
package socketcan

import (
	"encoding/binary"
	"net"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/tamzrod/canbridge/canbus"
)

func init() {
	canbus.RegisterTransport("socketcan", func(cfg canbus.Config) (canbus.Transport, error) {
		c, ok := cfg.(canbus.SocketCAN)
		if !ok {
			return nil, errors.Errorf("socketcan: unexpected config %T", cfg)
		}
		return Open(c.Channel)
	})
}

// can_frame flag bits, from <linux/can.h>.
const (
	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
	canErrFlag = 0x20000000
	canEffMask = 0x1FFFFFFF
	canSffMask = 0x7FF

	// canErrMask enables delivery of every error class on the raw socket.
	canErrMask = 0x1FFFFFFF

	frameSize = 16
)

// Transport is a raw CAN socket bound to one interface.
type Transport struct {
	fd  int
	clk clock.Clock

	once   sync.Once
	closed chan struct{}
}

var _ canbus.Transport = (*Transport)(nil)

// Open binds a raw CAN socket to the named interface (e.g. "can0") with
// error frame delivery enabled.
func Open(channel string) (*Transport, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, errors.Wrap(err, "socketcan: socket")
	}

	iface, err := net.InterfaceByName(channel)
	if err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "socketcan: interface %s", channel)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_ERR_FILTER, canErrMask); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "socketcan: enable error frames")
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "socketcan: bind %s", channel)
	}

	return &Transport{
		fd:     fd,
		clk:    clock.New(),
		closed: make(chan struct{}),
	}, nil
}

// Recv blocks until the kernel delivers the next can_frame.
func (t *Transport) Recv() (*canbus.Message, error) {
	buf := make([]byte, frameSize)
	for {
		n, err := unix.Read(t.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			select {
			case <-t.closed:
				return nil, canbus.ErrClosed
			default:
			}
			return nil, errors.Wrap(err, "socketcan: read")
		}
		if n != frameSize {
			return nil, errors.Errorf("socketcan: short read of %d bytes", n)
		}
		return t.decode(buf), nil
	}
}

// decode unpacks the 16-byte classical can_frame layout:
// can_id (LE u32, with flag bits), can_dlc, 3 pad bytes, 8 data bytes.
func (t *Transport) decode(buf []byte) *canbus.Message {
	rawID := binary.LittleEndian.Uint32(buf[0:4])
	dlc := buf[4]
	if dlc > 8 {
		dlc = 8
	}

	msg := &canbus.Message{
		IsErrorFrame: rawID&canErrFlag != 0,
		Timestamp:    canbus.Stamp(t.clk.Now()),
		DLC:          &dlc,
	}
	if rawID&canEffFlag != 0 {
		msg.ArbitrationID = rawID & canEffMask
	} else {
		msg.ArbitrationID = rawID & canSffMask
	}
	msg.Data = append([]byte(nil), buf[8:8+dlc]...)
	return msg
}

func (t *Transport) Send(msg *canbus.Message) error {
	if len(msg.Data) > 8 {
		return errors.Errorf("socketcan: payload of %d bytes exceeds 8-byte CAN limit", len(msg.Data))
	}

	rawID := msg.ArbitrationID
	if rawID > canSffMask {
		rawID |= canEffFlag
	}

	buf := make([]byte, frameSize)
	binary.LittleEndian.PutUint32(buf[0:4], rawID)
	buf[4] = msg.EffectiveDLC()
	copy(buf[8:], msg.Data)

	n, err := unix.Write(t.fd, buf)
	if err != nil {
		select {
		case <-t.closed:
			return canbus.ErrClosed
		default:
		}
		return errors.Wrap(err, "socketcan: write")
	}
	if n != frameSize {
		return errors.Errorf("socketcan: short write of %d bytes", n)
	}
	return nil
}

func (t *Transport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.closed)
		// Best-effort shutdown to unblock a pending read before the fd
		// goes away.
		unix.Shutdown(t.fd, unix.SHUT_RDWR)
		err = unix.Close(t.fd)
	})
	return err
}
