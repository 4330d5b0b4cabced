// canbus/config.go
package canbus

import "fmt"

// Config selects and parameterizes a CAN backend. It is a closed union:
// exactly one variant is chosen at construction time and every required
// parameter is a named, typed field, so a partially specified backend is
// not representable.
//
// A Config is consumed by New and kept on the Interface for introspection
// only; it is never reused to reopen the transport.
type Config interface {
	// Kind is the registry key of the backend this config selects.
	Kind() string

	isConfig()
}

// USBCAN selects a USB CAN adapter identified by its position on the USB
// tree (bus number plus device address). USBChannel, when non-empty,
// bypasses the lookup and names the device node directly.
type USBCAN struct {
	Bitrate    uint32
	USBChannel string
	USBBus     uint32
	USBAddress uint32
}

// SLCAN selects a serial-line CAN adapter on the given port,
// e.g. /dev/ttyUSB0.
type SLCAN struct {
	Bitrate    uint32
	SerialPort string
}

// SocketCAN selects a native OS-level CAN network interface by name,
// e.g. can0.
type SocketCAN struct {
	Channel string
}

// Socketcand selects a TCP-relayed CAN channel served by a socketcand
// daemon.
type Socketcand struct {
	Host    string
	Channel string
	Port    uint16
}

// Virtual selects an in-process bus. All interfaces opened on the same
// channel name exchange frames with each other. Intended for tests and
// simulations.
type Virtual struct {
	Channel string
}

func (USBCAN) Kind() string     { return "usbcan" }
func (SLCAN) Kind() string      { return "slcan" }
func (SocketCAN) Kind() string  { return "socketcan" }
func (Socketcand) Kind() string { return "socketcand" }
func (Virtual) Kind() string    { return "virtual" }

func (USBCAN) isConfig()     {}
func (SLCAN) isConfig()      {}
func (SocketCAN) isConfig()  {}
func (Socketcand) isConfig() {}
func (Virtual) isConfig()    {}

// displayName is the default interface name shown by dump-style tooling.
func displayName(cfg Config) string {
	switch c := cfg.(type) {
	case SLCAN:
		return c.SerialPort
	case SocketCAN:
		return c.Channel
	case Socketcand:
		return fmt.Sprintf("%s@%s:%d", c.Channel, c.Host, c.Port)
	case USBCAN:
		return fmt.Sprintf("usb:%d:%d", c.USBBus, c.USBAddress)
	case Virtual:
		return c.Channel
	default:
		return cfg.Kind()
	}
}
