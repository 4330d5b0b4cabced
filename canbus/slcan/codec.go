// slcan/codec.go
package slcan

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/tamzrod/canbridge/canbus"
)

// Serial-line CAN (slcan) ASCII framing:
//
//	tIIIL<data>   standard frame, 3-hex-digit id
//	TIIIIIIIIL<data>  extended frame, 8-hex-digit id
//	rIIIL / RIIIIIIIIL  remote request, no payload
//
// Each command is terminated by CR. The adapter answers a rejected command
// with a BEL byte.
const (
	cr  = '\r'
	bel = 0x07
)

const (
	maxStdID = 0x7FF
	maxExtID = 0x1FFFFFFF
)

// bitrateCode maps a bitrate in bit/s to the Sn setup command digit.
var bitrateCode = map[uint32]byte{
	10000:   '0',
	20000:   '1',
	50000:   '2',
	100000:  '3',
	125000:  '4',
	250000:  '5',
	500000:  '6',
	800000:  '7',
	1000000: '8',
}

func marshal(msg *canbus.Message) ([]byte, error) {
	dlc := msg.EffectiveDLC()
	if dlc > 8 || len(msg.Data) > 8 {
		return nil, errors.Errorf("slcan: dlc %d out of range", dlc)
	}
	if msg.ArbitrationID > maxExtID {
		return nil, errors.Errorf("slcan: id 0x%X out of range", msg.ArbitrationID)
	}

	var out []byte
	if msg.ArbitrationID > maxStdID {
		out = append(out, fmt.Sprintf("T%08X%d", msg.ArbitrationID, dlc)...)
	} else {
		out = append(out, fmt.Sprintf("t%03X%d", msg.ArbitrationID, dlc)...)
	}
	out = append(out, fmt.Sprintf("%X", msg.Data)...)
	return append(out, cr), nil
}

// parse decodes one CR-stripped line into a message. ts is the receive
// timestamp to stamp on the result.
func parse(line []byte, ts *float64) (*canbus.Message, error) {
	if len(line) == 0 {
		return nil, errors.New("slcan: empty line")
	}

	var idLen int
	remote := false
	switch line[0] {
	case 't':
		idLen = 3
	case 'T':
		idLen = 8
	case 'r':
		idLen = 3
		remote = true
	case 'R':
		idLen = 8
		remote = true
	default:
		return nil, errors.Errorf("slcan: unexpected line %q", line)
	}

	if len(line) < 1+idLen+1 {
		return nil, errors.Errorf("slcan: truncated line %q", line)
	}

	id, err := strconv.ParseUint(string(line[1:1+idLen]), 16, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "slcan: bad id in %q", line)
	}

	dlc64, err := strconv.ParseUint(string(line[1+idLen:1+idLen+1]), 10, 8)
	if err != nil || dlc64 > 8 {
		return nil, errors.Errorf("slcan: bad dlc in %q", line)
	}
	dlc := uint8(dlc64)

	msg := &canbus.Message{
		ArbitrationID: uint32(id),
		DLC:           &dlc,
		Timestamp:     ts,
	}

	if remote {
		return msg, nil
	}

	payload := line[1+idLen+1:]
	if len(payload) != int(dlc)*2 {
		return nil, errors.Errorf("slcan: payload length %d does not match dlc %d in %q",
			len(payload), dlc, line)
	}
	data, err := hex.DecodeString(string(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "slcan: bad payload in %q", line)
	}
	msg.Data = data
	return msg, nil
}
