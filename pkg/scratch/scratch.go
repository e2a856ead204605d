// Package scratch manages the per-run temporary files shared by the
// bitstream converter and the SVF player.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Space names and tracks one run's scratch files. The run identifier
// mixes the pid with the start time so simultaneous runs against
// different boards never collide. Files are removed after a successful
// run and left in place on failure so the generated scripts can be
// inspected.
type Space struct {
	Dir   string
	RunID string

	files []string
}

// New creates a Space under the system temp directory.
func New() *Space {
	return &Space{
		Dir:   os.TempDir(),
		RunID: fmt.Sprintf("%d-%d", os.Getpid(), time.Now().Unix()),
	}
}

// Path reserves a uniquely named scratch file for this run.
func (s *Space) Path(name string) string {
	path := filepath.Join(s.Dir, fmt.Sprintf("nexysprog-%s-%s", s.RunID, name))
	s.files = append(s.files, path)
	return path
}

// WriteFile writes data to a reserved scratch file and returns its path.
func (s *Space) WriteFile(name string, data []byte) (string, error) {
	path := s.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Cleanup removes every reserved file. Only called on success; failed
// runs keep their scripts around for diagnosis.
func (s *Space) Cleanup() {
	for _, path := range s.files {
		os.Remove(path)
	}
	s.files = nil
}
