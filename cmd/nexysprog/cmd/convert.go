package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/bitstream"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/scratch"
)

var forceConvert bool

var convertCmd = &cobra.Command{
	Use:   "convert <bitstream.bit>",
	Short: "Generate the SVF for a bitstream without touching the board",
	Long: `Run only the impact conversion step. The SVF is written next to the
bitstream and reused by later programming runs as long as it stays newer
than its source.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVarP(&forceConvert, "force", "f", false,
		"reconvert even when the cached SVF is up to date")
}

func runConvert(cmd *cobra.Command, args []string) error {
	bitPath := args[0]
	if _, err := os.Stat(bitPath); err != nil {
		return fmt.Errorf("bitstream %s: %w", bitPath, err)
	}
	if forceConvert {
		if err := os.Remove(bitstream.SVFPath(bitPath)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	space := scratch.New()
	converter := &bitstream.Converter{Runner: extproc.System{}, Scratch: space, Verbose: verbose}
	svfPath, err := converter.EnsureSVF(bitPath)
	if err != nil {
		return err
	}
	space.Cleanup()
	fmt.Println(svfPath)
	return nil
}
