// Package envfile emits the shell-sourceable environment file that wires the
// installed artifacts into a user's shell.
package envfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
)

const stepName = "environment file"

// Render produces the full file content from the resolved configuration. The
// output is deterministic: same config, same bytes.
func Render(cfg config.Config) string {
	nixlPrefix := cfg.InstallSubprefix(models.ComponentNIXL)
	nixlLib := filepath.Join(nixlPrefix, "lib", "x86_64-linux-gnu")
	pluginDir := filepath.Join(nixlLib, "plugins")

	pathEntries := []string{
		filepath.Join(cfg.InstallSubprefix(models.ComponentNIXLBench), "bin"),
	}
	libEntries := []string{
		filepath.Join(cfg.InstallSubprefix(models.ComponentUCX), "lib"),
		nixlLib,
		pluginDir,
		filepath.Join(cfg.InstallSubprefix(models.ComponentEtcd), "lib"),
	}
	if cfg.CUDAFound {
		pathEntries = append(pathEntries, filepath.Join(cfg.CUDAPath, "bin"))
		libEntries = append(libEntries, filepath.Join(cfg.CUDAPath, "lib64"))
	}

	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("# Generated by nixlup. Source this file to use the installed NIXL stack.\n")
	b.WriteString("# Regenerated on every run; do not edit.\n\n")

	fmt.Fprintf(&b, "export PATH=%q\n", strings.Join(pathEntries, ":")+":$PATH")
	fmt.Fprintf(&b, "export LD_LIBRARY_PATH=%q\n", strings.Join(libEntries, ":")+":$LD_LIBRARY_PATH")
	fmt.Fprintf(&b, "export NIXL_PLUGIN_DIR=%q\n", pluginDir)
	fmt.Fprintf(&b, "source %q\n", filepath.Join(cfg.VenvDir(), "bin", "activate"))
	b.WriteString("\n")
	b.WriteString(`echo "NIXL environment loaded"` + "\n")
	fmt.Fprintf(&b, "echo \"nixlbench: %s\"\n", filepath.Join(cfg.InstallSubprefix(models.ComponentNIXLBench), "bin", "nixlbench"))

	return b.String()
}

// Write regenerates the env file at its fixed path, overwriting any previous
// version, and marks it executable.
func Write(cfg config.Config) models.StepResult {
	path := cfg.EnvFilePath()
	if err := os.WriteFile(path, []byte(Render(cfg)), 0o755); err != nil {
		return models.Degraded(stepName, "writing %s: %v", path, err)
	}
	// WriteFile only applies the mode on create; prior versions may be 0644
	if err := os.Chmod(path, 0o755); err != nil {
		return models.Degraded(stepName, "marking %s executable: %v", path, err)
	}
	slog.Info("environment file written", "path", path)
	return models.Success(stepName)
}
