// internal/config/config.go
package config

type Config struct {
	Bus  BusConfig  `yaml:"bus"`
	Dump DumpConfig `yaml:"dump"`
}

// ---- BUS ----

// BusConfig selects the CAN backend. Type picks the variant; only the
// fields that variant needs are read. Validate enforces per-type
// requirements before the flat YAML shape is narrowed into the typed
// canbus.Config union.
type BusConfig struct {
	Type string `yaml:"type"` // usbcan | slcan | socketcan | socketcand | virtual

	// slcan / usbcan
	Bitrate    uint32 `yaml:"bitrate"`
	SerialPort string `yaml:"serial_port"`

	// usbcan
	USBChannel string `yaml:"usb_channel"`
	USBBus     uint32 `yaml:"usb_bus"`
	USBAddress uint32 `yaml:"usb_address"`

	// socketcan / socketcand / virtual
	Channel string `yaml:"channel"`

	// socketcand
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`
}

// ---- DUMP ----

type DumpConfig struct {
	// Mode is "poll" (synchronous Recv loop) or "callback" (notifier).
	Mode string `yaml:"mode"`

	// Name is the interface name printed on each dump line. Empty means
	// use the conventional placeholder for the bus type.
	Name string `yaml:"name"`

	// Debug enables frame-level transport logging to stderr.
	Debug bool `yaml:"debug"`
}
