// Package sysdeps installs the system package set via apt. Failures here are
// never fatal: a package the archive cannot provide may still be satisfied by
// the source builds later in the pipeline.
package sysdeps

import (
	"context"
	"log/slog"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
	"github.com/spachava753/nixlup/internal/runner"
)

const stepName = "system dependencies"

// Installer drives the system package manager.
type Installer struct {
	run runner.Runner
	log *slog.Logger
}

// New creates an Installer.
func New(run runner.Runner) *Installer {
	return &Installer{run: run, log: slog.Default()}
}

// Install refreshes the package index and bulk-installs the manifest's apt
// list. Both halves tolerate failure.
func (i *Installer) Install(ctx context.Context, cfg config.Config, pkgs config.Packages) models.StepResult {
	if cfg.SkipDeps {
		i.log.Info("skipping system dependency install")
		return models.Success(stepName)
	}

	i.log.Info("refreshing package index")
	if err := i.run.Run(ctx, runner.Cmd{Name: "sudo", Args: []string{"apt-get", "update"}}); err != nil {
		// partial repo metadata errors are common and usually harmless
		i.log.Warn("package index refresh failed, continuing", "error", err)
	}

	if len(pkgs.Apt.Packages) == 0 {
		return models.Success(stepName)
	}

	i.log.Info("installing system packages", "count", len(pkgs.Apt.Packages))
	args := append([]string{"apt-get", "install", "-y"}, pkgs.Apt.Packages...)
	if err := i.run.Run(ctx, runner.Cmd{Name: "sudo", Args: args}); err != nil {
		i.log.Warn("system package install failed, continuing", "error", err)
		return models.Degraded(stepName, "apt install failed: %v", err)
	}

	return models.Success(stepName)
}
