// Package pyenv prepares the isolated Python environment the meson builds
// run from: the uv package manager, a virtual environment under the build
// directory, and a small fixed package set.
package pyenv

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
	"github.com/spachava753/nixlup/internal/runner"
)

const (
	stepName       = "python environment"
	uvInstallerURL = "https://astral.sh/uv/install.sh"
)

// Builder ensures the Python toolchain is available.
type Builder struct {
	run runner.Runner
	log *slog.Logger
}

// New creates a Builder.
func New(run runner.Runner) *Builder {
	return &Builder{run: run, log: slog.Default()}
}

// Ensure makes uv, the venv and the pip package set available. Package
// install failures are tolerated: downstream builds may still succeed, and
// when they cannot (e.g. meson missing) they fail with their own error.
func (b *Builder) Ensure(ctx context.Context, cfg config.Config, pkgs config.Packages) models.StepResult {
	if err := b.ensureUV(ctx); err != nil {
		b.log.Warn("uv unavailable, python setup degraded", "error", err)
		return models.Degraded(stepName, "uv unavailable: %v", err)
	}

	venv := cfg.VenvDir()
	if _, err := os.Stat(venv); os.IsNotExist(err) {
		b.log.Info("creating python virtual environment", "path", venv, "python", cfg.PythonVersion)
		cmd := runner.Cmd{Name: "uv", Args: []string{"venv", "--python", cfg.PythonVersion, venv}}
		if err := b.run.Run(ctx, cmd); err != nil {
			b.log.Warn("venv creation failed, continuing", "error", err)
			return models.Degraded(stepName, "venv creation failed: %v", err)
		}
	}

	if len(pkgs.Pip.Packages) > 0 {
		b.log.Info("installing python packages", "count", len(pkgs.Pip.Packages))
		args := append([]string{"pip", "install", "--python", filepath.Join(venv, "bin", "python")},
			pkgs.Pip.Packages...)
		if err := b.run.Run(ctx, runner.Cmd{Name: "uv", Args: args}); err != nil {
			// kept lenient to match the pipeline's historical behavior, even
			// though meson/ninja from this set are assumed by later builds
			b.log.Warn("python package install failed, continuing", "error", err)
			return models.Degraded(stepName, "pip install failed: %v", err)
		}
	}

	return models.Success(stepName)
}

// ensureUV resolves uv on PATH, bootstrapping it from the upstream installer
// script when absent.
func (b *Builder) ensureUV(ctx context.Context) error {
	if _, err := b.run.LookPath("uv"); err == nil {
		return nil
	}

	b.log.Info("uv not found, bootstrapping", "url", uvInstallerURL)

	script := filepath.Join(os.TempDir(), "uv-install.sh")
	fetch := runner.Cmd{Name: "curl", Args: []string{"-LsSf", "-o", script, uvInstallerURL}}
	if err := b.run.Run(ctx, fetch); err != nil {
		return err
	}
	defer os.Remove(script)

	return b.run.Run(ctx, runner.Cmd{Name: "sh", Args: []string{script}})
}
