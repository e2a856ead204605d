package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/programmer"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Locate the board on the USB bus",
	Long: `Scan the USB bus once and report the board that would be programmed.

Useful for checking cabling and for seeing whether the board still runs
the factory firmware (1443:0005) or already presents the usb-jtag
identity (16c0:06ad).`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	dev, err := newScanner(extproc.System{}).Scan()
	if err != nil {
		return err
	}
	if dev == nil {
		return programmer.ErrDeviceNotFound
	}

	state := "configured (usb-jtag firmware)"
	if !dev.Configured() {
		state = "blank (factory firmware)"
	}
	fmt.Printf("%s  %s\n", dev, state)
	return nil
}
