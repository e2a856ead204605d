package usb

import (
	"fmt"

	"github.com/google/gousb"
)

// GousbScanner enumerates the bus through libusb instead of shelling out
// to lsusb. Same contract as LsusbScanner, including the last-match
// tie-break when several boards are attached.
type GousbScanner struct{}

// Scan implements Scanner.
func (GousbScanner) Scan() (*Device, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var devices []Device
	_, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		id := ID{Vendor: uint16(desc.Vendor), Product: uint16(desc.Product)}
		if id.Known() {
			devices = append(devices, Device{Bus: desc.Bus, Address: desc.Address, ID: id})
		}
		return false
	})
	// Access errors on unrelated devices are normal for unprivileged
	// runs; enumeration itself still succeeded.
	if err != nil && err != gousb.ErrorAccess {
		return nil, fmt.Errorf("enumerating USB bus: %w", err)
	}
	return lastKnown(devices), nil
}
