package runner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner used by tests across packages. It records
// every invocation and answers from configured tables instead of spawning
// processes.
type FakeRunner struct {
	mu    sync.Mutex
	calls []Cmd

	// Outputs maps a full command line (as rendered by Cmd.String) to the
	// stdout that Output should return. Commands without an entry fail.
	Outputs map[string]string

	// FailPrefixes lists command-line prefixes whose Run/Output invocations
	// fail with a generic exit error.
	FailPrefixes []string

	// MissingTools contains names that LookPath should report as not found.
	MissingTools map[string]bool
}

// NewFakeRunner returns an empty fake where every Run succeeds, every Output
// is unscripted (and thus fails), and every tool resolves.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Outputs:      map[string]string{},
		MissingTools: map[string]bool{},
	}
}

func (f *FakeRunner) record(c Cmd) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// Calls returns a copy of all recorded invocations.
func (f *FakeRunner) Calls() []Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Cmd(nil), f.calls...)
}

// CallLines returns every recorded invocation as a rendered command line.
func (f *FakeRunner) CallLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// CalledWithPrefix reports whether any recorded command line starts with the
// given prefix.
func (f *FakeRunner) CalledWithPrefix(prefix string) bool {
	for _, line := range f.CallLines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// CalledInDir reports whether any recorded command ran in the given directory.
func (f *FakeRunner) CalledInDir(dir string) bool {
	for _, c := range f.Calls() {
		if c.Dir == dir {
			return true
		}
	}
	return false
}

func (f *FakeRunner) shouldFail(line string) bool {
	for _, prefix := range f.FailPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Run records the call and fails only when the command line matches a
// configured failure prefix.
func (f *FakeRunner) Run(_ context.Context, c Cmd) error {
	f.record(c)
	if f.shouldFail(c.String()) {
		return fmt.Errorf("%s: simulated failure", c.String())
	}
	return nil
}

// Output records the call and returns the scripted stdout, or an error when
// the command line is unscripted or matches a failure prefix.
func (f *FakeRunner) Output(_ context.Context, c Cmd) (string, error) {
	f.record(c)
	line := c.String()
	if f.shouldFail(line) {
		return "", fmt.Errorf("%s: simulated failure", line)
	}
	if out, ok := f.Outputs[line]; ok {
		return out, nil
	}
	return "", fmt.Errorf("%s: no scripted output", line)
}

// LookPath resolves every tool to a fixed path unless listed as missing.
func (f *FakeRunner) LookPath(name string) (string, error) {
	if f.MissingTools[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}
