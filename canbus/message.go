// canbus/message.go
package canbus

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message is the canonical in-process representation of a CAN frame.
// It is backend-independent: every transport translates its native frame
// into this shape and back.
//
// Optional fields are pointers; nil means the backend did not supply a value.
// DLC is independently settable from len(Data) because some backends carry a
// declared length that differs from the delivered payload.
type Message struct {
	ArbitrationID uint32

	// Data is the payload, up to 8 bytes. nil means no payload was supplied.
	Data []byte

	// DLC is the data length code. Backends may normalize it to len(Data).
	DLC *uint8

	IsErrorFrame bool

	// Timestamp is the backend receive time in seconds since the Unix epoch.
	// Absent for messages constructed locally for send.
	Timestamp *float64
}

// Stamp converts a wall-clock time into the float-seconds form carried by
// Message.Timestamp.
func Stamp(t time.Time) *float64 {
	ts := float64(t.UnixNano()) / 1e9
	return &ts
}

// EffectiveDLC returns the declared DLC, falling back to the payload length.
func (m *Message) EffectiveDLC() uint8 {
	if m.DLC != nil {
		return *m.DLC
	}
	return uint8(len(m.Data))
}

// String renders the message for human/log consumption. This is not a wire
// format. Error frames suppress payload fields: data and dlc carry no meaning
// on them.
func (m *Message) String() string {
	ts := floatOrNone(m.Timestamp)
	if m.IsErrorFrame {
		return fmt.Sprintf("Message: @%s ERROR FRAME", ts)
	}
	return fmt.Sprintf("Message: @%s | id=0x%03X | dlc=%s | data=%s",
		ts, m.ArbitrationID, uintOrNone(m.DLC), dataOrNone(m.Data))
}

// DumpLine renders the message in the candump text convention:
//
//	<iface>  <8-hex id>   [<dlc>]  <space-separated 2-hex bytes>
//
// name is the interface name to display; callers may pass a fixed placeholder
// (e.g. "slcan") to match well-known dump output byte-for-byte.
func (m *Message) DumpLine(name string) string {
	var data strings.Builder
	for i, b := range m.Data {
		if i > 0 {
			data.WriteByte(' ')
		}
		fmt.Fprintf(&data, "%02X", b)
	}
	return fmt.Sprintf("%s  %08X   [%d]  %s", name, m.ArbitrationID, m.EffectiveDLC(), data.String())
}

func floatOrNone(v *float64) string {
	if v == nil {
		return "None"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func uintOrNone(v *uint8) string {
	if v == nil {
		return "None"
	}
	return strconv.Itoa(int(*v))
}

func dataOrNone(data []byte) string {
	if data == nil {
		return "None"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range data {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%X", d)
	}
	b.WriteByte(']')
	return b.String()
}
