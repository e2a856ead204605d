// Package extproc is the boundary through which every external tool is
// invoked. All side-effecting subprocess calls in this module go through the
// Runner interface so the orchestration on top can be tested against
// scripted results instead of real processes.
package extproc

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result captures the outcome of a finished subprocess.
type Result struct {
	ExitCode int
	Output   []byte // combined stdout and stderr
}

// Runner invokes external tools and resolves them on PATH.
type Runner interface {
	// Run executes the tool and waits for it. A non-zero exit status is
	// reported through Result, not through the error; the error is
	// reserved for the tool failing to start at all.
	Run(name string, args ...string) (Result, error)

	// LookPath resolves a tool name against the process search path.
	LookPath(name string) (string, error)
}

// System runs commands on the host via os/exec.
type System struct{}

// Run implements Runner.
func (System) Run(name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Output: out}, nil
		}
		return Result{ExitCode: -1, Output: out}, fmt.Errorf("starting %s: %w", name, err)
	}
	return Result{ExitCode: 0, Output: out}, nil
}

// LookPath implements Runner.
func (System) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// ToolError reports a tool that ran but exited non-zero. The combined
// output is carried verbatim so opaque third-party failures stay
// diagnosable.
type ToolError struct {
	Tool     string
	ExitCode int
	Output   []byte
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if out := strings.TrimSpace(string(e.Output)); out != "" {
		msg += "\n" + out
	}
	return msg
}

// RunChecked runs the tool and converts a non-zero exit into a ToolError.
func RunChecked(r Runner, name string, args ...string) (Result, error) {
	res, err := r.Run(name, args...)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &ToolError{Tool: name, ExitCode: res.ExitCode, Output: res.Output}
	}
	return res, nil
}
