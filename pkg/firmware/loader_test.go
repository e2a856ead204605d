package firmware

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
	"github.com/PierreBizouard/ixo-usb-jtag/pkg/usb"
)

// seqScanner returns canned scan results, repeating the last one once the
// sequence runs out.
type seqScanner struct {
	results []*usb.Device
	calls   int
}

func (s *seqScanner) Scan() (*usb.Device, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	if len(s.results) == 0 {
		return nil, nil
	}
	return s.results[i], nil
}

func writableAccess(string) error { return nil }

func TestLoadSuccess(t *testing.T) {
	blank := usb.Device{Bus: 1, Address: 4, ID: usb.BlankID}
	configured := &usb.Device{Bus: 1, Address: 5, ID: usb.ConfiguredID}

	runner := &extproc.Script{}
	scanner := &seqScanner{results: []*usb.Device{nil, nil, configured}}
	loader := &Loader{
		Runner:  runner,
		Scanner: scanner,
		HexPath: "/opt/nexysprog/usbjtag-fx2.hex",
		Access:  writableAccess,
		Sleep:   func(time.Duration) {},
	}

	address, err := loader.Load(blank)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if address != 5 {
		t.Fatalf("address = %d, want 5", address)
	}

	calls := runner.Named("fxload")
	if len(calls) != 1 {
		t.Fatalf("fxload invoked %d times, want 1", len(calls))
	}
	want := []string{"-t", "fx2", "-I", "/opt/nexysprog/usbjtag-fx2.hex", "-D", "/dev/bus/usb/001/004"}
	got := calls[0].Args
	if len(got) != len(want) {
		t.Fatalf("fxload args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fxload args = %v, want %v", got, want)
		}
	}
	if scanner.calls != 3 {
		t.Fatalf("scanner polled %d times, want 3", scanner.calls)
	}
}

func TestLoadReenumerationTimeout(t *testing.T) {
	blank := usb.Device{Bus: 1, Address: 4, ID: usb.BlankID}
	stillBlank := &usb.Device{Bus: 1, Address: 4, ID: usb.BlankID}

	sleeps := 0
	scanner := &seqScanner{results: []*usb.Device{stillBlank}}
	loader := &Loader{
		Runner:  &extproc.Script{},
		Scanner: scanner,
		HexPath: "fw.hex",
		Access:  writableAccess,
		Sleep:   func(time.Duration) { sleeps++ },
	}

	_, err := loader.Load(blank)
	var timeout *ReenumerationTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("got %v, want ReenumerationTimeout", err)
	}
	if timeout.Attempts != 20 {
		t.Fatalf("Attempts = %d, want 20", timeout.Attempts)
	}
	if scanner.calls != 20 {
		t.Fatalf("scanner polled %d times, want exactly 20", scanner.calls)
	}
	if sleeps != 19 {
		t.Fatalf("slept %d times, want 19", sleeps)
	}
}

func TestLoadPermissionDenied(t *testing.T) {
	blank := usb.Device{Bus: 1, Address: 4, ID: usb.BlankID}

	runner := &extproc.Script{}
	loader := &Loader{
		Runner:  runner,
		Scanner: &seqScanner{},
		HexPath: "fw.hex",
		Access:  func(string) error { return syscall.EACCES },
		Sleep:   func(time.Duration) {},
	}

	_, err := loader.Load(blank)
	var perm *PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("got %v, want PermissionError", err)
	}
	if perm.Node != "/dev/bus/usb/001/004" {
		t.Fatalf("Node = %q", perm.Node)
	}
	if !errors.Is(err, syscall.EACCES) {
		t.Fatalf("PermissionError does not wrap the access error: %v", err)
	}
	if len(runner.Calls) != 0 {
		t.Fatalf("fxload ran despite unwritable node: %v", runner.Calls)
	}
}

func TestLoadFxloadFailure(t *testing.T) {
	blank := usb.Device{Bus: 1, Address: 4, ID: usb.BlankID}

	runner := &extproc.Script{
		Results: map[string]extproc.Result{
			"fxload": {ExitCode: 1, Output: []byte("fxload: unable to download fw.hex")},
		},
	}
	scanner := &seqScanner{}
	loader := &Loader{
		Runner:  runner,
		Scanner: scanner,
		HexPath: "fw.hex",
		Access:  writableAccess,
		Sleep:   func(time.Duration) {},
	}

	_, err := loader.Load(blank)
	var toolErr *extproc.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("got %v, want ToolError", err)
	}
	if toolErr.Tool != "fxload" || toolErr.ExitCode != 1 {
		t.Fatalf("ToolError = %+v", toolErr)
	}
	if scanner.calls != 0 {
		t.Fatal("polled the bus after a failed push")
	}
}
