// Package orchestrator sequences the whole pipeline: prerequisite gate,
// system packages, Python environment, the four component builds, the
// environment file and the final smoke test. Execution is strictly
// sequential; one external process runs at a time.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spachava753/nixlup/internal/builder"
	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/envfile"
	"github.com/spachava753/nixlup/internal/models"
	"github.com/spachava753/nixlup/internal/prereq"
	"github.com/spachava753/nixlup/internal/pyenv"
	"github.com/spachava753/nixlup/internal/runner"
	"github.com/spachava753/nixlup/internal/sysdeps"
	"github.com/spachava753/nixlup/internal/verify"
)

// Orchestrator drives the build pipeline against a process runner.
type Orchestrator struct {
	cfg config.Config
	run runner.Runner
	log *slog.Logger
}

// New creates an Orchestrator.
func New(cfg config.Config, run runner.Runner) *Orchestrator {
	return &Orchestrator{cfg: cfg, run: run, log: slog.Default()}
}

// Run executes the pipeline. A fatal step stops it immediately; degraded
// steps accumulate into the end-of-run warnings summary.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunResult, error) {
	result := &models.RunResult{}

	pkgs, err := config.LoadPackages(o.cfg.PackagesPath)
	if err != nil {
		return nil, fmt.Errorf("loading package manifest: %w", err)
	}

	for _, dir := range []string{o.cfg.BuildDir, o.cfg.InstallPrefix} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	cfg := o.cfg

	checker := prereq.New(o.run)
	cfg, res := checker.Check(ctx, cfg)
	if o.collect(result, res) {
		return result, nil
	}

	if o.collect(result, sysdeps.New(o.run).Install(ctx, cfg, pkgs)) {
		return result, nil
	}

	b := builder.New(cfg, o.run)
	py := pyenv.New(o.run)
	pyReady := false

	for _, recipe := range b.Recipes() {
		comp := recipe.Component()

		// the meson-based builds expect the python environment
		if !pyReady && usesMeson(comp.Name) && !cfg.Skipped(comp.Name) {
			if o.collect(result, py.Ensure(ctx, cfg, pkgs)) {
				return result, nil
			}
			pyReady = true
		}

		if o.collect(result, b.Run(ctx, recipe)) {
			return result, nil
		}
	}

	if o.collect(result, envfile.Write(cfg)) {
		return result, nil
	}

	verify.New(o.run).Check(ctx, cfg)

	o.summarize(cfg, result)
	return result, nil
}

func usesMeson(name string) bool {
	return name == models.ComponentNIXL || name == models.ComponentNIXLBench
}

// collect records a step result and reports whether the run must stop.
func (o *Orchestrator) collect(result *models.RunResult, res models.StepResult) bool {
	result.Steps = append(result.Steps, res)
	switch res.Status {
	case models.StepDegraded:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", res.Step, res.Reason))
	case models.StepFatal:
		result.Fatal = &res
		o.log.Error("pipeline aborted", "step", res.Step, "reason", res.Reason)
		return true
	}
	return false
}

func (o *Orchestrator) summarize(cfg config.Config, result *models.RunResult) {
	for _, w := range result.Warnings {
		o.log.Warn("completed with warning", "warning", w)
	}

	o.log.Info("build pipeline finished", "install_prefix", cfg.InstallPrefix)
	fmt.Println()
	fmt.Println("NIXL stack installed.")
	fmt.Printf("  source %s\n", cfg.EnvFilePath())
	fmt.Println("  nixlbench --help")
}
