// Package xilinx locates the ISE installation that provides impact and
// the BSDL data UrJTAG needs to describe the board's chain.
package xilinx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
)

// Toolchain is a validated ISE install root.
type Toolchain struct {
	Root string
}

// BSDLDirs returns the data directories describing the two devices in the
// board's chain: the XCF platform flash and the Spartan-3E FPGA.
func (t Toolchain) BSDLDirs() []string {
	return []string{
		filepath.Join(t.Root, "xcf", "data"),
		filepath.Join(t.Root, "spartan3e", "data"),
	}
}

// Locate derives the install root from wherever impact resolves on PATH
// and verifies the data directories exist beneath it. There is no
// environment variable involved; the root always follows the executable,
// which is what the ISE settings script arranges.
func Locate(runner extproc.Runner) (Toolchain, error) {
	path, err := runner.LookPath("impact")
	if err != nil {
		return Toolchain{}, &UnresolvedError{Reason: "impact not found on PATH"}
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	tc := Toolchain{Root: filepath.Dir(filepath.Dir(path))}
	for _, dir := range tc.BSDLDirs() {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return Toolchain{}, &UnresolvedError{
				Reason: fmt.Sprintf("%s missing (impact resolved to %s)", dir, path),
			}
		}
	}
	return tc, nil
}

// UnresolvedError means the ISE install root could not be derived or is
// incomplete.
type UnresolvedError struct {
	Reason string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("cannot resolve Xilinx toolchain: %s; source the ISE settings script and retry", e.Reason)
}
