// internal/config/build_test.go
package config

import (
	"os"
	"testing"

	"github.com/tamzrod/canbridge/canbus"
)

func TestBuildBus_Variants(t *testing.T) {
	cases := []struct {
		in   BusConfig
		want canbus.Config
	}{
		{
			in:   BusConfig{Type: "slcan", SerialPort: "/dev/ttyUSB0", Bitrate: 500000},
			want: canbus.SLCAN{SerialPort: "/dev/ttyUSB0", Bitrate: 500000},
		},
		{
			in:   BusConfig{Type: "usbcan", Bitrate: 250000, USBBus: 3, USBAddress: 7},
			want: canbus.USBCAN{Bitrate: 250000, USBBus: 3, USBAddress: 7},
		},
		{
			in:   BusConfig{Type: "socketcan", Channel: "can0"},
			want: canbus.SocketCAN{Channel: "can0"},
		},
		{
			in:   BusConfig{Type: "socketcand", Host: "relay", Channel: "can0", Port: 29536},
			want: canbus.Socketcand{Host: "relay", Channel: "can0", Port: 29536},
		},
		{
			in:   BusConfig{Type: "virtual", Channel: "vcan0"},
			want: canbus.Virtual{Channel: "vcan0"},
		},
	}

	for _, tc := range cases {
		got, err := BuildBus(tc.in)
		if err != nil {
			t.Fatalf("BuildBus(%+v) err=%v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("BuildBus(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestBuildBus_UnknownType(t *testing.T) {
	if _, err := BuildBus(BusConfig{Type: "pigeon"}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bus.yaml"
	raw := []byte(`
bus:
  type: socketcand
  host: relay.local
  channel: can0
  port: 29536
dump:
  mode: poll
  name: socketcand
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if cfg.Bus.Type != "socketcand" || cfg.Bus.Host != "relay.local" || cfg.Bus.Port != 29536 {
		t.Fatalf("unexpected bus config: %+v", cfg.Bus)
	}
	if cfg.Dump.Mode != "poll" {
		t.Fatalf("unexpected dump config: %+v", cfg.Dump)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/bus.yaml"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
