// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// BUS SELECTION
	// ------------------------------------------------------------

	b := cfg.Bus

	switch b.Type {
	case "slcan":
		if b.SerialPort == "" {
			return fmt.Errorf("bus type %q: serial_port is required", b.Type)
		}
		if b.Bitrate == 0 {
			return fmt.Errorf("bus type %q: bitrate is required", b.Type)
		}

	case "usbcan":
		if b.Bitrate == 0 {
			return fmt.Errorf("bus type %q: bitrate is required", b.Type)
		}
		// Either an explicit device node or a bus/address pair.
		if b.USBChannel == "" && (b.USBBus == 0 || b.USBAddress == 0) {
			return fmt.Errorf("bus type %q: usb_channel or usb_bus+usb_address is required", b.Type)
		}

	case "socketcan":
		if b.Channel == "" {
			return fmt.Errorf("bus type %q: channel is required", b.Type)
		}

	case "socketcand":
		if b.Host == "" {
			return fmt.Errorf("bus type %q: host is required", b.Type)
		}
		if b.Channel == "" {
			return fmt.Errorf("bus type %q: channel is required", b.Type)
		}
		if b.Port == 0 {
			return fmt.Errorf("bus type %q: port is required", b.Type)
		}

	case "virtual":
		if b.Channel == "" {
			return fmt.Errorf("bus type %q: channel is required", b.Type)
		}

	case "":
		return fmt.Errorf("bus type is required")

	default:
		return fmt.Errorf("unknown bus type %q", b.Type)
	}

	// ------------------------------------------------------------
	// DUMP OPTIONS
	// ------------------------------------------------------------

	switch cfg.Dump.Mode {
	case "", "poll", "callback":
	default:
		return fmt.Errorf("unknown dump mode %q", cfg.Dump.Mode)
	}

	return nil
}
