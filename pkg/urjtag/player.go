// Package urjtag drives the UrJTAG jtag binary: a version probe that
// rejects the incompatible same-named openwince tool, and the playback of
// SVF files through the board's USB-Blaster compatible interface.
package urjtag

import (
	"fmt"
	"strings"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/scratch"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/xilinx"
)

const (
	// versionSignature is self-reported by the required fork. The old
	// openwince tool installs under the same name and would fail much
	// later with an opaque error if it slipped through.
	versionSignature = "UrJTAG"

	// cable is the driver for the ixo usb-jtag firmware identity.
	cable = "UsbBlaster"
)

// Verify probes `jtag --version` and rejects anything that is not UrJTAG.
func Verify(runner extproc.Runner) error {
	res, err := runner.Run("jtag", "--version")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 || !strings.Contains(string(res.Output), versionSignature) {
		return &VersionError{Output: res.Output}
	}
	return nil
}

// Player writes the command script for one playback session and runs it.
type Player struct {
	Runner  extproc.Runner
	Scratch *scratch.Space
	Verbose bool
}

// Play sends the SVF through the board. This is the final step of a run
// and has no fallback; a failing jtag invocation surfaces the tool's
// output verbatim.
func (p *Player) Play(svfPath string, tc xilinx.Toolchain) error {
	scriptPath, err := p.Scratch.WriteFile("urjtag.cmd", []byte(commandScript(svfPath, tc)))
	if err != nil {
		return fmt.Errorf("writing jtag script: %w", err)
	}
	if p.Verbose {
		fmt.Printf("playing %s through %s cable\n", svfPath, cable)
	}
	res, err := extproc.RunChecked(p.Runner, "jtag", scriptPath)
	if err != nil {
		return err
	}
	if p.Verbose {
		fmt.Print(string(res.Output))
	}
	return nil
}

// commandScript renders the UrJTAG session: where to find BSDL data for
// the two chained devices, which cable to drive, automatic chain
// detection, then playback against the FPGA at position 1.
func commandScript(svfPath string, tc xilinx.Toolchain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "bsdl path %s\n", strings.Join(tc.BSDLDirs(), ";"))
	fmt.Fprintf(&b, "cable %s\n", cable)
	fmt.Fprintf(&b, "detect\n")
	fmt.Fprintf(&b, "part 1\n")
	fmt.Fprintf(&b, "svf %s\n", svfPath)
	fmt.Fprintf(&b, "quit\n")
	return b.String()
}

// VersionError reports a jtag binary that is not the UrJTAG fork.
type VersionError struct {
	Output []byte
}

func (e *VersionError) Error() string {
	got := strings.TrimSpace(string(e.Output))
	if got == "" {
		got = "(no output)"
	}
	return fmt.Sprintf("jtag did not identify as %s: %s; install UrJTAG, the openwince jtag tool is not compatible",
		versionSignature, got)
}
