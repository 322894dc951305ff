package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Cmd describes a single external command invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string   // working directory, empty for the process cwd
	Env  []string // extra KEY=VALUE entries appended to the process environment
}

// String renders the command line for logs and error messages.
func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes external commands. All builder stages depend on this
// interface so tests can substitute a recording fake.
type Runner interface {
	// Run executes the command, streaming its output to the log. A non-zero
	// exit status is returned as an error.
	Run(ctx context.Context, cmd Cmd) error

	// Output executes the command and returns its captured stdout.
	Output(ctx context.Context, cmd Cmd) (string, error)

	// LookPath resolves a binary name on PATH.
	LookPath(name string) (string, error)
}

// ExitCode extracts the process exit code from an error returned by Run or
// Output. Returns -1 if the command never ran.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExecRunner runs commands via os/exec on the local host.
type ExecRunner struct {
	log *slog.Logger
}

// NewExecRunner creates a runner that logs command output through the given
// logger. A nil logger falls back to slog.Default.
func NewExecRunner(log *slog.Logger) *ExecRunner {
	if log == nil {
		log = slog.Default()
	}
	return &ExecRunner{log: log}
}

func (r *ExecRunner) command(ctx context.Context, c Cmd) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	return cmd
}

// Run executes the command and forwards each output line to the log at debug
// level, so long builds remain observable without flooding the default level.
func (r *ExecRunner) Run(ctx context.Context, c Cmd) error {
	cmd := r.command(ctx, c)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("piping stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("piping stderr: %w", err)
	}

	r.log.Debug("running command", "cmd", c.String(), "dir", c.Dir)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", c.Name, err)
	}

	g := new(errgroup.Group)
	g.Go(func() error { return r.forward(stdout, c.Name, "stdout") })
	g.Go(func() error { return r.forward(stderr, c.Name, "stderr") })

	pumpErr := g.Wait()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w", c.String(), err)
	}
	return pumpErr
}

func (r *ExecRunner) forward(pipe io.Reader, name, stream string) error {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		r.log.Debug(scanner.Text(), "cmd", name, "stream", stream)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s of %s: %w", stream, name, err)
	}
	return nil
}

// Output executes the command and returns its trimmed stdout. Stderr is
// captured and included in the error on failure.
func (r *ExecRunner) Output(ctx context.Context, c Cmd) (string, error) {
	cmd := r.command(ctx, c)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("running command", "cmd", c.String(), "dir", c.Dir)

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", c.String(), err, msg)
		}
		return "", fmt.Errorf("%s: %w", c.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// LookPath resolves a binary on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
