// usbcan/usbcan.go

// Package usbcan drives USB-serial CAN adapters addressed by their position
// on the USB tree (bus number and device address) rather than by a device
// node path, which survives re-enumeration better than /dev/ttyUSBn names.
//
// The adapter's device node is resolved through sysfs and then driven with
// the slcan wire protocol at the configured bitrate.
package usbcan

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tamzrod/canbridge/canbus"
	"github.com/tamzrod/canbridge/canbus/slcan"
)

func init() {
	canbus.RegisterTransport("usbcan", func(cfg canbus.Config) (canbus.Transport, error) {
		c, ok := cfg.(canbus.USBCAN)
		if !ok {
			return nil, errors.Errorf("usbcan: unexpected config %T", cfg)
		}
		return Open(c)
	})
}

const sysfsUSBDevices = "/sys/bus/usb/devices"

// Open resolves the adapter's serial device node and opens it as an slcan
// channel. When USBChannel is set it is used as the device node directly and
// the bus/address lookup is skipped.
func Open(cfg canbus.USBCAN) (canbus.Transport, error) {
	device := cfg.USBChannel
	if device == "" {
		var err error
		device, err = ResolveTTY(sysfsUSBDevices, cfg.USBBus, cfg.USBAddress)
		if err != nil {
			return nil, err
		}
	}
	return slcan.Open(device, cfg.Bitrate)
}

// ResolveTTY walks the sysfs USB device tree under root and returns the
// /dev path of the tty exposed by the device at the given bus number and
// device address.
func ResolveTTY(root string, bus, address uint32) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", errors.Wrapf(err, "usbcan: read %s", root)
	}

	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		if !matchesAttr(dir, "busnum", bus) || !matchesAttr(dir, "devnum", address) {
			continue
		}
		tty, err := findTTY(dir)
		if err != nil {
			return "", err
		}
		return "/dev/" + tty, nil
	}
	return "", errors.Errorf("usbcan: no USB device at bus %d address %d", bus, address)
}

// matchesAttr reads a numeric sysfs attribute file and compares it.
func matchesAttr(dir, attr string, want uint32) bool {
	raw, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return false
	}
	v, err := strconv.ParseUint(string(bytes.TrimSpace(raw)), 10, 32)
	if err != nil {
		return false
	}
	return uint32(v) == want
}

// findTTY searches the device's interface directories for a tty child,
// e.g. 1-2:1.0/ttyUSB0 or 1-2:1.0/tty/ttyACM0.
func findTTY(deviceDir string) (string, error) {
	var found string
	err := filepath.WalkDir(deviceDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
			found = name
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "usbcan: scan %s", deviceDir)
	}
	if found == "" {
		return "", errors.Errorf("usbcan: device at %s exposes no tty", deviceDir)
	}
	return found, nil
}
