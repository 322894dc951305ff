// Package builder drives each component through the common
// fetch → configure → build → install lifecycle against its own upstream
// build system.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
	"github.com/spachava753/nixlup/internal/runner"
)

// Recipe is the component-specific half of the lifecycle: how to configure,
// compile and install one source tree. The shared half (fetch, state
// tracking, privilege fallback) lives in Builder.
type Recipe interface {
	Component() models.Component
	Configure(ctx context.Context) error
	Build(ctx context.Context) error
	Install(ctx context.Context) error
}

// Gate is implemented by recipes that can be satisfied by an existing system
// install, short-circuiting the whole component.
type Gate interface {
	Satisfied(ctx context.Context) (ok bool, detail string)
}

// Builder runs recipes through the lifecycle state machine.
type Builder struct {
	cfg config.Config
	run runner.Runner
	log *slog.Logger
}

// New creates a Builder.
func New(cfg config.Config, run runner.Runner) *Builder {
	return &Builder{cfg: cfg, run: run, log: slog.Default()}
}

// Jobs returns the compile parallelism passed to make/ninja.
func Jobs() int {
	return runtime.NumCPU()
}

// Run drives one component to the installed state. Failures in required
// components are fatal; everything else degrades the run.
func (b *Builder) Run(ctx context.Context, r Recipe) models.StepResult {
	comp := r.Component()
	step := "build " + comp.Name

	if b.cfg.Skipped(comp.Name) {
		b.log.Info("skipping component", "component", comp.Name)
		return models.Success(step)
	}

	if gate, ok := r.(Gate); ok {
		if satisfied, detail := gate.Satisfied(ctx); satisfied {
			b.log.Info("system install satisfies requirement, skipping build",
				"component", comp.Name, "detail", detail)
			return models.Success(step)
		}
	}

	m, err := newMachine(b.log.Handler())
	if err != nil {
		return b.fail(comp, step, fmt.Errorf("creating lifecycle machine: %w", err))
	}

	log := b.log.With("component", comp.Name)

	log.Info("fetching source")
	if err := b.fetch(ctx, comp); err != nil {
		_ = m.Transition(StateError)
		return b.fail(comp, step, fmt.Errorf("fetching: %w", err))
	}
	_ = m.Transition(StateFetched)

	log.Info("configuring")
	if err := r.Configure(ctx); err != nil {
		_ = m.Transition(StateError)
		return b.fail(comp, step, fmt.Errorf("configuring: %w", err))
	}
	_ = m.Transition(StateConfigured)

	log.Info("compiling", "jobs", Jobs())
	if err := r.Build(ctx); err != nil {
		_ = m.Transition(StateError)
		return b.fail(comp, step, fmt.Errorf("compiling: %w", err))
	}
	_ = m.Transition(StateBuilt)

	log.Info("installing", "prefix", b.cfg.InstallSubprefix(comp.Name))
	if err := r.Install(ctx); err != nil {
		_ = m.Transition(StateError)
		return b.fail(comp, step, fmt.Errorf("installing: %w", err))
	}
	_ = m.Transition(StateInstalled)

	log.Info("component installed", "state", m.GetState())
	return models.Success(step)
}

func (b *Builder) fail(comp models.Component, step string, err error) models.StepResult {
	if comp.Required {
		return models.Fatal(step, "%v", err)
	}
	b.log.Warn("component build degraded", "component", comp.Name, "error", err)
	return models.Degraded(step, "%v", err)
}

// fetch brings the component's source tree into place. Components without a
// repo URL are expected to already exist inside another component's tree.
func (b *Builder) fetch(ctx context.Context, comp models.Component) error {
	dir := b.cfg.SourceDir(comp.Name)

	if comp.RepoURL == "" {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("source directory %s missing (was its parent component skipped?)", dir)
		}
		return nil
	}

	if _, err := os.Stat(dir); err == nil {
		if b.cfg.Clean {
			b.log.Info("clean rebuild requested, removing checkout", "component", comp.Name, "dir", dir)
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("removing %s: %w", dir, err)
			}
			return b.clone(ctx, comp, dir)
		}

		// best-effort update; a failed pull never fails the step
		pull := runner.Cmd{Name: "git", Args: []string{"pull", "--ff-only"}, Dir: dir}
		if err := b.run.Run(ctx, pull); err != nil {
			b.log.Warn("source update failed, building existing checkout",
				"component", comp.Name, "error", err)
		}
		return nil
	}

	return b.clone(ctx, comp, dir)
}

// clone prefers a shallow clone, falling back to a full clone when the remote
// rejects it.
func (b *Builder) clone(ctx context.Context, comp models.Component, dir string) error {
	shallow := runner.Cmd{Name: "git", Args: []string{
		"clone", "--depth", "1", "--branch", comp.Branch, comp.RepoURL, dir,
	}}
	if err := b.run.Run(ctx, shallow); err == nil {
		return nil
	} else {
		b.log.Warn("shallow clone failed, retrying full clone", "component", comp.Name, "error", err)
	}

	full := runner.Cmd{Name: "git", Args: []string{
		"clone", "--branch", comp.Branch, comp.RepoURL, dir,
	}}
	if err := b.run.Run(ctx, full); err != nil {
		return fmt.Errorf("git clone %s: %w", comp.RepoURL, err)
	}
	return nil
}

// install runs the native install target with elevation, falling back to an
// unprivileged attempt, then refreshes the shared-library cache best-effort.
func (b *Builder) install(ctx context.Context, dir, tool string, args ...string) error {
	privileged := runner.Cmd{Name: "sudo", Args: append([]string{tool}, args...), Dir: dir}
	if err := b.run.Run(ctx, privileged); err != nil {
		b.log.Warn("privileged install failed, retrying unprivileged", "error", err)
		plain := runner.Cmd{Name: tool, Args: args, Dir: dir}
		if err := b.run.Run(ctx, plain); err != nil {
			return fmt.Errorf("%s install: %w", tool, err)
		}
	}

	if err := b.run.Run(ctx, runner.Cmd{Name: "sudo", Args: []string{"ldconfig"}}); err != nil {
		b.log.Debug("ldconfig failed, ignoring", "error", err)
	}
	return nil
}

// ensureBuildDir creates a component's out-of-tree build directory,
// tolerating prior runs.
func (b *Builder) ensureBuildDir(name string) (string, error) {
	dir := b.cfg.BuildSubdir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating build directory: %w", err)
	}
	return dir, nil
}

func jobsArg() string {
	return "-j" + strconv.Itoa(Jobs())
}
