// Package programmer sequences a full board programming run.
//
// The order is fixed: verify the external tools, locate the Xilinx
// toolchain, make sure an up-to-date SVF exists, find the board on the
// bus, load the interface firmware if the board is still blank, then play
// the SVF. Any failure aborts the run; the only retrying anywhere is the
// firmware loader's bounded re-enumeration poll.
package programmer

import (
	"errors"
	"fmt"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/bitstream"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/firmware"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/scratch"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/urjtag"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/usb"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/xilinx"
)

// ErrDeviceNotFound means no supported board was seen on the bus at all.
var ErrDeviceNotFound = errors.New("no board found on the USB bus; check that it is plugged in and powered")

// ToolMissingError names a required external tool absent from PATH.
type ToolMissingError struct {
	Tool string
	Hint string
}

func (e *ToolMissingError) Error() string {
	msg := fmt.Sprintf("required tool %q not found on PATH", e.Tool)
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

// requiredTools is everything that must be present before the run touches
// the board or the filesystem. jtag additionally gets a version probe: an
// incompatible same-named tool installs cleanly and would otherwise fail
// cryptically at the very last step.
var requiredTools = []struct {
	name string
	hint string
}{
	{"lsusb", "install usbutils"},
	{"fxload", "install fxload"},
	{"impact", "source the Xilinx ISE settings script"},
	{"jtag", "install UrJTAG"},
}

// FirmwareLoader is the slice of firmware.Loader the orchestrator needs.
type FirmwareLoader interface {
	Load(dev usb.Device) (int, error)
}

// Programmer owns the collaborators for one run. Everything is injected
// so the sequencing can be tested against scripted tools and a fake bus.
type Programmer struct {
	Runner  extproc.Runner
	Scanner usb.Scanner
	Scratch *scratch.Space
	HexPath string
	Verbose bool

	// Loader overrides the firmware loader; nil builds the real one.
	Loader FirmwareLoader
}

// VerifyTools checks tool presence and the UrJTAG version signature.
func (p *Programmer) VerifyTools() error {
	for _, tool := range requiredTools {
		if _, err := p.Runner.LookPath(tool.name); err != nil {
			return &ToolMissingError{Tool: tool.name, Hint: tool.hint}
		}
	}
	return urjtag.Verify(p.Runner)
}

// Run programs the board with the given bitstream. Scratch files are
// removed on success and kept on failure.
func (p *Programmer) Run(bitPath string) (err error) {
	defer func() {
		if err == nil {
			p.Scratch.Cleanup()
		}
	}()

	if err := p.VerifyTools(); err != nil {
		return err
	}

	tc, err := xilinx.Locate(p.Runner)
	if err != nil {
		return err
	}
	if p.Verbose {
		fmt.Printf("using Xilinx toolchain at %s\n", tc.Root)
	}

	converter := &bitstream.Converter{Runner: p.Runner, Scratch: p.Scratch, Verbose: p.Verbose}
	svfPath, err := converter.EnsureSVF(bitPath)
	if err != nil {
		return err
	}

	dev, err := p.Scanner.Scan()
	if err != nil {
		return err
	}
	if dev == nil {
		return ErrDeviceNotFound
	}
	if p.Verbose {
		fmt.Printf("found board at %s\n", dev)
	}

	if !dev.Configured() {
		loader := p.Loader
		if loader == nil {
			loader = &firmware.Loader{
				Runner:  p.Runner,
				Scanner: p.Scanner,
				HexPath: p.HexPath,
				Verbose: p.Verbose,
			}
		}
		if _, err := loader.Load(*dev); err != nil {
			return err
		}
	} else if p.Verbose {
		fmt.Println("board already runs usb-jtag firmware, skipping load")
	}

	player := &urjtag.Player{Runner: p.Runner, Scratch: p.Scratch, Verbose: p.Verbose}
	return player.Play(svfPath, tc)
}
