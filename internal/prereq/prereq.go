// Package prereq verifies the host has the tools the source builds need.
// Missing required tools accumulate into one consolidated error so the user
// fixes everything in a single pass; this is the pipeline's only hard gate
// before the mandatory build itself.
package prereq

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
	"github.com/spachava753/nixlup/internal/runner"
)

const stepName = "prerequisites"

// requiredTools maps each required command to the apt package that provides
// it, used for the remediation hint when something is missing.
var requiredTools = []struct {
	name string
	pkg  string
}{
	{"git", "git"},
	{"gcc", "build-essential"},
	{"g++", "build-essential"},
	{"make", "build-essential"},
	{"autoconf", "autoconf"},
	{"automake", "automake"},
	{"libtool", "libtool"},
	{"pkg-config", "pkg-config"},
}

// cmake ships as cmake3 on some distributions; either name satisfies the
// requirement and the resolved one is recorded as an alias.
const (
	cmakePrimary   = "cmake"
	cmakeAlternate = "cmake3"
)

// Checker probes the host for required and optional tooling.
type Checker struct {
	run runner.Runner
	log *slog.Logger
}

// New creates a Checker.
func New(run runner.Runner) *Checker {
	return &Checker{run: run, log: slog.Default()}
}

// Check scans for required tools and best-effort accelerator support. The
// returned config carries any discovered CUDA root and tool aliases.
func (c *Checker) Check(ctx context.Context, cfg config.Config) (config.Config, models.StepResult) {
	var missing []string
	var packages []string

	for _, tool := range requiredTools {
		if _, err := c.run.LookPath(tool.name); err != nil {
			missing = append(missing, tool.name)
			packages = append(packages, tool.pkg)
			continue
		}
		c.log.Debug("found required tool", "tool", tool.name)
	}

	if resolved, err := c.lookEither(cmakePrimary, cmakeAlternate); err != nil {
		missing = append(missing, cmakePrimary)
		packages = append(packages, "cmake")
	} else {
		c.log.Debug("found required tool", "tool", cmakePrimary, "resolved", resolved)
		if resolved != cmakePrimary {
			cfg = cfg.WithToolAlias(cmakePrimary, resolved)
		}
	}

	cfg = c.detectCUDA(cfg)
	c.probeGPU(ctx)

	if len(missing) > 0 {
		c.log.Error("missing required tools", "tools", strings.Join(missing, ", "))
		c.log.Error("install them first", "hint", "sudo apt-get install -y "+strings.Join(dedupe(packages), " "))
		return cfg, models.Fatal(stepName, "missing required tools: %s", strings.Join(missing, ", "))
	}

	return cfg, models.Success(stepName)
}

// lookEither resolves the primary command name, falling back to the
// alternate. Returns the name that resolved.
func (c *Checker) lookEither(primary, alternate string) (string, error) {
	if _, err := c.run.LookPath(primary); err == nil {
		return primary, nil
	}
	if _, err := c.run.LookPath(alternate); err == nil {
		return alternate, nil
	}
	return "", fmt.Errorf("neither %s nor %s found on PATH", primary, alternate)
}

// detectCUDA confirms the configured toolkit path or discovers one. The
// result is merged into the returned config; absence is only a warning since
// the pipeline can build CPU-only.
func (c *Checker) detectCUDA(cfg config.Config) config.Config {
	if _, err := os.Stat(filepath.Join(cfg.CUDAPath, "bin", "nvcc")); err == nil {
		c.log.Info("CUDA toolkit found", "path", cfg.CUDAPath)
		cfg.CUDAFound = true
		return cfg
	}

	if nvccPath, err := c.run.LookPath("nvcc"); err == nil {
		root := filepath.Dir(filepath.Dir(nvccPath))
		c.log.Info("CUDA toolkit found via nvcc on PATH", "path", root)
		cfg.CUDAPath = root
		cfg.CUDAFound = true
		return cfg
	}

	if matches, err := filepath.Glob("/usr/local/cuda*/bin/nvcc"); err == nil && len(matches) > 0 {
		root := filepath.Dir(filepath.Dir(matches[0]))
		c.log.Info("CUDA toolkit found by search", "path", root)
		cfg.CUDAPath = root
		cfg.CUDAFound = true
		return cfg
	}

	c.log.Warn("CUDA toolkit not found, building without GPU support",
		"checked", cfg.CUDAPath, "hint", "set --cuda-path if CUDA is installed elsewhere")
	return cfg
}

// probeGPU reports visible GPUs. Purely informational.
func (c *Checker) probeGPU(ctx context.Context) {
	out, err := c.run.Output(ctx, runner.Cmd{Name: "nvidia-smi", Args: []string{"-L"}})
	if err != nil {
		c.log.Warn("no GPU detected (nvidia-smi unavailable or failed)")
		return
	}
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			c.log.Info("GPU detected", "gpu", line)
		}
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
