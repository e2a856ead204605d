// Package bitstream derives and caches the SVF rendition of an FPGA
// bitstream using impact in batch mode.
//
// Conversion is by far the most expensive step of a programming run and
// is purely a function of the bitstream file, so the generated SVF lives
// next to its source and is only regenerated when missing or stale.
package bitstream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/scratch"
)

// SVFPath returns the derived SVF name for a bitstream, swapping the
// extension and keeping the file next to its source.
func SVFPath(bitPath string) string {
	return strings.TrimSuffix(bitPath, filepath.Ext(bitPath)) + ".svf"
}

// Stale reports whether the SVF must be regenerated. The cache is valid
// exactly when the SVF exists and is strictly newer than its source.
func Stale(bitPath, svfPath string) (bool, error) {
	src, err := os.Stat(bitPath)
	if err != nil {
		return false, fmt.Errorf("bitstream %s: %w", bitPath, err)
	}
	derived, err := os.Stat(svfPath)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("svf %s: %w", svfPath, err)
	}
	return !derived.ModTime().After(src.ModTime()), nil
}

// Converter drives impact to turn a bitstream into an SVF script.
type Converter struct {
	Runner  extproc.Runner
	Scratch *scratch.Space
	Verbose bool
}

// EnsureSVF returns the path of an up-to-date SVF for the bitstream,
// regenerating it only when missing or older than its source.
func (c *Converter) EnsureSVF(bitPath string) (string, error) {
	svfPath := SVFPath(bitPath)
	stale, err := Stale(bitPath, svfPath)
	if err != nil {
		return "", err
	}
	if !stale {
		if c.Verbose {
			fmt.Printf("%s is up to date, skipping conversion\n", svfPath)
		}
		return svfPath, nil
	}

	scriptPath, err := c.Scratch.WriteFile("impact.cmd", []byte(batchScript(bitPath, svfPath)))
	if err != nil {
		return "", fmt.Errorf("writing impact script: %w", err)
	}
	if c.Verbose {
		fmt.Printf("converting %s to %s\n", bitPath, svfPath)
	}
	if _, err := extproc.RunChecked(c.Runner, "impact", "-batch", scriptPath); err != nil {
		return "", err
	}
	if _, err := os.Stat(svfPath); err != nil {
		return "", &ConversionError{Bitstream: bitPath, SVF: svfPath}
	}
	return svfPath, nil
}

// batchScript renders the impact command file. The board chain has the
// XCF platform flash at position 1 and the FPGA at position 2; only the
// FPGA is programmed, through a virtual SVF cable pointed at the output
// file.
func batchScript(bitPath, svfPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "setMode -bscan\n")
	fmt.Fprintf(&b, "setCable -port svf -file %q\n", svfPath)
	fmt.Fprintf(&b, "addDevice -p 1 -part xcf04s\n")
	fmt.Fprintf(&b, "addDevice -p 2 -file %q\n", bitPath)
	fmt.Fprintf(&b, "program -p 2\n")
	fmt.Fprintf(&b, "closeCable\n")
	fmt.Fprintf(&b, "quit\n")
	return b.String()
}

// ConversionError means impact exited cleanly but never wrote the SVF.
// That is an integration fault, not something a retry will fix.
type ConversionError struct {
	Bitstream string
	SVF       string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("impact produced no SVF for %s (expected %s)", e.Bitstream, e.SVF)
}
