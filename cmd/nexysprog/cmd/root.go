package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/firmware"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/programmer"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/scratch"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/usb"
)

var (
	// Global flags
	verbose   bool
	directUSB bool
)

var rootCmd = &cobra.Command{
	Use:   "nexysprog <bitstream.bit>",
	Short: "Program a Digilent Nexys2-class FPGA board over USB",
	Long: `nexysprog programs the board through its on-board USB connector.

A factory-blank board first gets the usb-jtag interface firmware loaded
into its FX2, after which it re-enumerates as a USB-Blaster compatible
device. The bitstream is converted to SVF with impact (the result is
cached next to the bitstream) and played through UrJTAG.

Examples:
  nexysprog design.bit           # full programming run
  nexysprog -v design.bit        # with step-by-step diagnostics
  nexysprog scan                 # just locate the board
  nexysprog convert design.bit   # regenerate the SVF only`,
	Args:          cobra.ExactArgs(1),
	RunE:          runProgram,
	Version:       "1.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&directUSB, "direct-usb", false,
		"enumerate USB devices through libusb instead of lsusb")
}

// newScanner picks the bus scan backend selected by the global flags.
func newScanner(runner extproc.Runner) usb.Scanner {
	if directUSB {
		return usb.GousbScanner{}
	}
	return &usb.LsusbScanner{Runner: runner}
}

func runProgram(cmd *cobra.Command, args []string) error {
	bitPath := args[0]
	if _, err := os.Stat(bitPath); err != nil {
		return fmt.Errorf("bitstream %s: %w", bitPath, err)
	}

	hexPath, err := firmware.DefaultHexPath()
	if err != nil {
		return err
	}

	runner := extproc.System{}
	prog := &programmer.Programmer{
		Runner:  runner,
		Scanner: newScanner(runner),
		Scratch: scratch.New(),
		HexPath: hexPath,
		Verbose: verbose,
	}
	return prog.Run(bitPath)
}
