// Package usb locates the supported board on the USB bus.
//
// The board is only ever seen under one of two identities: the factory
// blank FX2 (1443:0005) straight out of the box, or the USB-Blaster
// compatible identity (16c0:06ad) once the usb-jtag interface firmware is
// running. Everything else on the bus is ignored.
package usb

import "fmt"

// ID is a USB vendor:product identity pair.
type ID struct {
	Vendor  uint16
	Product uint16
}

// The two identities the board presents.
var (
	// BlankID is the factory FX2 identity, before any interface
	// firmware has been loaded.
	BlankID = ID{Vendor: 0x1443, Product: 0x0005}

	// ConfiguredID is the USB-Blaster compatible identity presented
	// once the usb-jtag firmware is running.
	ConfiguredID = ID{Vendor: 0x16c0, Product: 0x06ad}
)

func (id ID) String() string {
	return fmt.Sprintf("%04x:%04x", id.Vendor, id.Product)
}

// Known reports whether the identity belongs to the supported board.
func (id ID) Known() bool {
	return id == BlankID || id == ConfiguredID
}

// ParseID parses a "vvvv:pppp" hex identity pair.
func ParseID(s string) (ID, error) {
	var vendor, product uint16
	if _, err := fmt.Sscanf(s, "%04x:%04x", &vendor, &product); err != nil {
		return ID{}, fmt.Errorf("invalid USB id %q: %w", s, err)
	}
	return ID{Vendor: vendor, Product: product}, nil
}

// Device is one board sighting from a bus scan. Sightings are
// reconstructed on every scan and never persisted; the address changes
// when the board re-enumerates.
type Device struct {
	Bus     int
	Address int
	ID      ID
}

// Node returns the usbfs device node backing the sighting.
func (d Device) Node() string {
	return fmt.Sprintf("/dev/bus/usb/%03d/%03d", d.Bus, d.Address)
}

// Configured reports whether the sighting already runs interface firmware.
func (d Device) Configured() bool {
	return d.ID == ConfiguredID
}

func (d Device) String() string {
	return fmt.Sprintf("bus %d device %d id %s", d.Bus, d.Address, d.ID)
}

// Scanner locates the supported board on the bus.
type Scanner interface {
	// Scan returns the last matching device listed, or nil when no
	// device with a known identity is present.
	Scan() (*Device, error)
}

// lastKnown keeps the historical tie-break: when several matching devices
// are listed, the one listed last wins.
func lastKnown(devices []Device) *Device {
	var found *Device
	for i := range devices {
		if devices[i].ID.Known() {
			found = &devices[i]
		}
	}
	return found
}
