package usb

import (
	"errors"
	"testing"

	"github.com/PierreBizouard/ixo-usb-jtag/pkg/extproc"
)

func TestParseBusList(t *testing.T) {
	out := []byte(`Bus 002 Device 001: ID 1d6b:0002 Linux Foundation 2.0 root hub
Bus 001 Device 004: ID 1443:0005 Digilent Development board JTAG
garbage line that matches nothing
Bus 001 Device 005: ID 16c0:06ad Van Ooijen Technische Informatica
`)
	devices := parseBusList(out)
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	want := []Device{
		{Bus: 2, Address: 1, ID: ID{0x1d6b, 0x0002}},
		{Bus: 1, Address: 4, ID: BlankID},
		{Bus: 1, Address: 5, ID: ConfiguredID},
	}
	for i, dev := range devices {
		if dev != want[i] {
			t.Fatalf("device %d = %+v, want %+v", i, dev, want[i])
		}
	}
}

func TestLastKnown(t *testing.T) {
	tests := []struct {
		name    string
		devices []Device
		want    *Device
	}{
		{
			name: "single blank match",
			devices: []Device{
				{Bus: 1, Address: 2, ID: ID{0x1234, 0x5678}},
				{Bus: 2, Address: 3, ID: BlankID},
			},
			want: &Device{Bus: 2, Address: 3, ID: BlankID},
		},
		{
			name: "last match wins",
			devices: []Device{
				{Bus: 1, Address: 2, ID: BlankID},
				{Bus: 1, Address: 9, ID: ConfiguredID},
			},
			want: &Device{Bus: 1, Address: 9, ID: ConfiguredID},
		},
		{
			name: "no match",
			devices: []Device{
				{Bus: 1, Address: 2, ID: ID{0x1d6b, 0x0002}},
			},
			want: nil,
		},
		{
			name: "empty bus",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lastKnown(tt.devices)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("got %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestLsusbScanner(t *testing.T) {
	runner := &extproc.Script{
		Results: map[string]extproc.Result{
			"lsusb": {Output: []byte(
				"Bus 003 Device 001: ID 1d6b:0001 Linux Foundation 1.1 root hub\n" +
					"Bus 001 Device 004: ID 1443:0005 Digilent\n")},
		},
	}

	scanner := &LsusbScanner{Runner: runner}
	dev, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if dev == nil {
		t.Fatal("expected a device")
	}
	if dev.Bus != 1 || dev.Address != 4 || dev.ID != BlankID {
		t.Fatalf("got %+v", dev)
	}
	if len(runner.Named("lsusb")) != 1 {
		t.Fatalf("lsusb invoked %d times, want 1", len(runner.Named("lsusb")))
	}
}

func TestLsusbScannerNoMatch(t *testing.T) {
	runner := &extproc.Script{
		Results: map[string]extproc.Result{
			"lsusb": {Output: []byte("Bus 001 Device 001: ID 1d6b:0002 Linux Foundation 2.0 root hub\n")},
		},
	}
	dev, err := (&LsusbScanner{Runner: runner}).Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if dev != nil {
		t.Fatalf("got %+v, want no device", dev)
	}
}

func TestLsusbScannerFailures(t *testing.T) {
	t.Run("non-zero exit", func(t *testing.T) {
		runner := &extproc.Script{
			Results: map[string]extproc.Result{
				"lsusb": {ExitCode: 1, Output: []byte("cannot open /dev/bus/usb")},
			},
		}
		if _, err := (&LsusbScanner{Runner: runner}).Scan(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("not invocable", func(t *testing.T) {
		wantErr := errors.New("exec format error")
		runner := &extproc.Script{
			OnRun: func(name string, args []string) (extproc.Result, error) {
				return extproc.Result{}, wantErr
			},
		}
		_, err := (&LsusbScanner{Runner: runner}).Scan()
		if !errors.Is(err, wantErr) {
			t.Fatalf("got %v, want %v", err, wantErr)
		}
	})
}

func TestParseID(t *testing.T) {
	id, err := ParseID("16c0:06ad")
	if err != nil {
		t.Fatalf("ParseID failed: %v", err)
	}
	if id != ConfiguredID {
		t.Fatalf("got %v, want %v", id, ConfiguredID)
	}
	if id.String() != "16c0:06ad" {
		t.Fatalf("String() = %q", id.String())
	}

	if _, err := ParseID("not-an-id"); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestDeviceNode(t *testing.T) {
	dev := Device{Bus: 1, Address: 4, ID: BlankID}
	if got := dev.Node(); got != "/dev/bus/usb/001/004" {
		t.Fatalf("Node() = %q", got)
	}
}
