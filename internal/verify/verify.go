// Package verify smoke-tests the finished installation. Everything here is
// advisory: a failed check warns and never changes the exit code.
package verify

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
	"github.com/spachava753/nixlup/internal/runner"
)

// Verifier checks installed artifacts.
type Verifier struct {
	run runner.Runner
	log *slog.Logger
}

// New creates a Verifier.
func New(run runner.Runner) *Verifier {
	return &Verifier{run: run, log: slog.Default()}
}

// Check probes the benchmark binary and the core shared library.
func (v *Verifier) Check(ctx context.Context, cfg config.Config) {
	benchBin := filepath.Join(cfg.InstallSubprefix(models.ComponentNIXLBench), "bin", "nixlbench")
	if _, err := os.Stat(benchBin); err != nil {
		v.log.Warn("nixlbench binary not found", "path", benchBin)
	} else {
		nixlLib := filepath.Join(cfg.InstallSubprefix(models.ComponentNIXL), "lib", "x86_64-linux-gnu")
		ucxLib := filepath.Join(cfg.InstallSubprefix(models.ComponentUCX), "lib")
		cmd := runner.Cmd{
			Name: benchBin,
			Args: []string{"--help"},
			Env: []string{
				"LD_LIBRARY_PATH=" + nixlLib + string(os.PathListSeparator) + ucxLib,
			},
		}
		if err := v.run.Run(ctx, cmd); err != nil {
			v.log.Warn("nixlbench --help failed", "error", err)
		} else {
			v.log.Info("nixlbench runs", "path", benchBin)
		}
	}

	coreLib := filepath.Join(cfg.InstallSubprefix(models.ComponentNIXL), "lib", "x86_64-linux-gnu", "libnixl.so")
	if _, err := os.Stat(coreLib); err != nil {
		v.log.Warn("core library not found", "path", coreLib)
	} else {
		v.log.Info("core library installed", "path", coreLib)
	}
}
