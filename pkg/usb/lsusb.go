package usb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
)

// lsusbLexer tokenizes a single line of `lsusb` output. The identity pair
// rule must precede the integer rule so "16c0:06ad" is not split into a
// number and a word.
var lsusbLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "IDPair", Pattern: `[0-9a-fA-F]{4}:[0-9a-fA-F]{4}`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `[^ \t]+`},
})

// busLine is the parsed shape of `Bus <N> Device <N>: ID <vvvv>:<pppp>
// <description>`. Numbers are captured as strings because lsusb pads them
// with leading zeros.
type busLine struct {
	Bus    string   `"Bus" @Int`
	Device string   `"Device" @Int ":"`
	ID     string   `"ID" @IDPair`
	Descr  []string `( @Word | @Int | @IDPair )*`
}

var lsusbParser = participle.MustBuild[busLine](
	participle.Lexer(lsusbLexer),
	participle.Elide("Whitespace"),
)

// parseBusList extracts device sightings from lsusb-style output. Lines
// that do not match the expected shape are skipped.
func parseBusList(out []byte) []Device {
	var devices []Device
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entry, err := lsusbParser.ParseString("", line)
		if err != nil {
			continue
		}
		bus, err := strconv.Atoi(entry.Bus)
		if err != nil {
			continue
		}
		address, err := strconv.Atoi(entry.Device)
		if err != nil {
			continue
		}
		id, err := ParseID(entry.ID)
		if err != nil {
			continue
		}
		devices = append(devices, Device{Bus: bus, Address: address, ID: id})
	}
	return devices
}

// LsusbScanner locates the board by parsing `lsusb` output. This is the
// default backend; it needs no direct libusb access and sees the bus the
// same way the operator does.
type LsusbScanner struct {
	Runner extproc.Runner
}

// Scan implements Scanner. A failing lsusb invocation is an error; without
// bus enumeration nothing downstream can work.
func (s *LsusbScanner) Scan() (*Device, error) {
	res, err := s.Runner.Run("lsusb")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("lsusb exited with status %d: %s",
			res.ExitCode, strings.TrimSpace(string(res.Output)))
	}
	return lastKnown(parseBusList(res.Output)), nil
}
