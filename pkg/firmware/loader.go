// Package firmware loads the usb-jtag interface firmware into a blank
// FX2 and waits for the board to come back under its configured identity.
//
// The load itself is a single fxload invocation; the interesting part is
// what happens after. The board drops off the bus, reboots into the new
// firmware and re-enumerates as a different device. The only way to
// observe that transition is to poll the bus until the configured
// identity appears.
package firmware

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/retry"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/usb"
)

// HexName is the fxload firmware image shipped next to the binary.
const HexName = "usbjtag-fx2.hex"

// Re-enumeration is asynchronous and takes a bus settle time in the tens
// of milliseconds. 20 polls at 10ms bound the worst case around 200ms.
const (
	pollAttempts = 20
	pollInterval = 10 * time.Millisecond
)

// Loader pushes firmware with fxload and polls for re-enumeration.
type Loader struct {
	Runner  extproc.Runner
	Scanner usb.Scanner
	HexPath string
	Verbose bool

	// Access and Sleep are replaced in tests; nil means a W_OK check on
	// the device node and time.Sleep respectively.
	Access func(path string) error
	Sleep  func(time.Duration)
}

// DefaultHexPath resolves the firmware image next to the running
// executable.
func DefaultHexPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), HexName), nil
}

// Load programs the FX2 at dev and returns the device address the board
// re-enumerates under. The device node must be writable by this process;
// fxload does not report permission problems usefully, so that is checked
// up front.
func (l *Loader) Load(dev usb.Device) (int, error) {
	node := dev.Node()
	access := l.Access
	if access == nil {
		access = func(path string) error { return unix.Access(path, unix.W_OK) }
	}
	if err := access(node); err != nil {
		return 0, &PermissionError{Node: node, Err: err}
	}

	if l.Verbose {
		fmt.Printf("loading %s into %s\n", l.HexPath, node)
	}
	if _, err := extproc.RunChecked(l.Runner, "fxload", "-t", "fx2", "-I", l.HexPath, "-D", node); err != nil {
		return 0, err
	}

	var address int
	policy := retry.Policy{Attempts: pollAttempts, Interval: pollInterval, Sleep: l.Sleep}
	err := policy.Do(func() (bool, error) {
		found, err := l.Scanner.Scan()
		if err != nil {
			return false, err
		}
		if found != nil && found.Configured() {
			address = found.Address
			return true, nil
		}
		return false, nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return 0, &ReenumerationTimeout{Attempts: pollAttempts}
	}
	if err != nil {
		return 0, err
	}

	if l.Verbose {
		fmt.Printf("board re-enumerated as %s, device %d\n", usb.ConfiguredID, address)
	}
	return address, nil
}

// PermissionError means the usbfs node is not writable by this process.
type PermissionError struct {
	Node string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s is not writable (%v); rerun as root or grant write access via a udev rule", e.Node, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// ReenumerationTimeout means the firmware was pushed but the configured
// identity never appeared within the poll budget. Either the board was
// unplugged mid-load or the push silently failed.
type ReenumerationTimeout struct {
	Attempts int
}

func (e *ReenumerationTimeout) Error() string {
	return fmt.Sprintf("board did not re-enumerate as %s after %d polls; replug the cable and rerun",
		usb.ConfiguredID, e.Attempts)
}
