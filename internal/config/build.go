// internal/config/build.go
package config

import (
	"fmt"

	"github.com/tamzrod/canbridge/canbus"
)

// BuildBus narrows the flat YAML bus section into the typed backend union.
// It MUST be called only after Validate().
func BuildBus(b BusConfig) (canbus.Config, error) {
	switch b.Type {
	case "slcan":
		return canbus.SLCAN{
			Bitrate:    b.Bitrate,
			SerialPort: b.SerialPort,
		}, nil

	case "usbcan":
		return canbus.USBCAN{
			Bitrate:    b.Bitrate,
			USBChannel: b.USBChannel,
			USBBus:     b.USBBus,
			USBAddress: b.USBAddress,
		}, nil

	case "socketcan":
		return canbus.SocketCAN{Channel: b.Channel}, nil

	case "socketcand":
		return canbus.Socketcand{
			Host:    b.Host,
			Channel: b.Channel,
			Port:    b.Port,
		}, nil

	case "virtual":
		return canbus.Virtual{Channel: b.Channel}, nil

	default:
		return nil, fmt.Errorf("unknown bus type %q", b.Type)
	}
}
