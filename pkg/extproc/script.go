package extproc

import (
	"fmt"
	"os/exec"
)

// Call records one Run invocation made against a Script runner.
type Call struct {
	Name string
	Args []string
}

// Script is a Runner for tests. Results are served from canned tables or,
// when more control is needed, from the OnRun hook. Every invocation is
// recorded so tests can assert on call ordering.
type Script struct {
	// OnRun, when set, handles every Run call.
	OnRun func(name string, args []string) (Result, error)

	// Results maps a tool name to its canned result when OnRun is nil.
	Results map[string]Result

	// Paths maps tool names to LookPath answers. Tools absent from the
	// map resolve to themselves when the map itself is nil, and fail
	// with exec.ErrNotFound otherwise.
	Paths map[string]string

	Calls []Call
}

// Run implements Runner.
func (s *Script) Run(name string, args ...string) (Result, error) {
	s.Calls = append(s.Calls, Call{Name: name, Args: args})
	if s.OnRun != nil {
		return s.OnRun(name, args)
	}
	if res, ok := s.Results[name]; ok {
		return res, nil
	}
	return Result{}, nil
}

// LookPath implements Runner.
func (s *Script) LookPath(name string) (string, error) {
	if s.Paths == nil {
		return name, nil
	}
	if path, ok := s.Paths[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

// Named returns the recorded calls for one tool.
func (s *Script) Named(tool string) []Call {
	var out []Call
	for _, call := range s.Calls {
		if call.Name == tool {
			out = append(out, call)
		}
	}
	return out
}
