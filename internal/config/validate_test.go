// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

func TestValidate_SlcanOK(t *testing.T) {
	cfg := &Config{
		Bus: BusConfig{Type: "slcan", SerialPort: "/dev/ttyUSB0", Bitrate: 500000},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestValidate_SlcanMissingPort(t *testing.T) {
	cfg := &Config{
		Bus: BusConfig{Type: "slcan", Bitrate: 500000},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_UsbcanNeedsLocator(t *testing.T) {
	cfg := &Config{
		Bus: BusConfig{Type: "usbcan", Bitrate: 500000},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}

	// bus+address pair is enough
	cfg.Bus.USBBus = 3
	cfg.Bus.USBAddress = 7
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	// explicit device node is also enough
	cfg.Bus = BusConfig{Type: "usbcan", Bitrate: 500000, USBChannel: "/dev/ttyACM0"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestValidate_SocketcandRequiresEndpoint(t *testing.T) {
	cfg := &Config{
		Bus: BusConfig{Type: "socketcand", Host: "relay", Channel: "can0", Port: 29536},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	for _, mutate := range []func(*BusConfig){
		func(b *BusConfig) { b.Host = "" },
		func(b *BusConfig) { b.Channel = "" },
		func(b *BusConfig) { b.Port = 0 },
	} {
		bad := cfg.Bus
		mutate(&bad)
		if err := Validate(&Config{Bus: bad}); err == nil {
			t.Fatalf("expected error for %+v, got nil", bad)
		}
	}
}

func TestValidate_UnknownType(t *testing.T) {
	err := Validate(&Config{Bus: BusConfig{Type: "pigeon"}})
	if err == nil || !strings.Contains(err.Error(), "unknown bus type") {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestValidate_MissingType(t *testing.T) {
	if err := Validate(&Config{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_DumpMode(t *testing.T) {
	cfg := &Config{
		Bus:  BusConfig{Type: "virtual", Channel: "vcan0"},
		Dump: DumpConfig{Mode: "sideways"},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}

	cfg.Dump.Mode = "poll"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{Bus: BusConfig{Type: "slcan", SerialPort: "/dev/ttyUSB0", Bitrate: 125000}}
	Normalize(cfg)

	if cfg.Dump.Mode != "callback" {
		t.Fatalf("default mode = %q, want callback", cfg.Dump.Mode)
	}
	if cfg.Dump.Name != "slcan" {
		t.Fatalf("default name = %q, want slcan", cfg.Dump.Name)
	}
}

func TestNormalize_SocketcanNameIsChannel(t *testing.T) {
	cfg := &Config{Bus: BusConfig{Type: "socketcan", Channel: "can1"}}
	Normalize(cfg)

	if cfg.Dump.Name != "can1" {
		t.Fatalf("default name = %q, want can1", cfg.Dump.Name)
	}
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Bus:  BusConfig{Type: "socketcand", Host: "relay", Channel: "can0", Port: 29536},
		Dump: DumpConfig{Mode: "poll", Name: "custom"},
	}
	Normalize(cfg)

	if cfg.Dump.Mode != "poll" || cfg.Dump.Name != "custom" {
		t.Fatalf("Normalize overwrote explicit values: %+v", cfg.Dump)
	}
}
