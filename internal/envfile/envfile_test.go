package envfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ProjectRoot = t.TempDir()
	cfg.BuildDir = filepath.Join(cfg.ProjectRoot, "build")
	cfg.InstallPrefix = filepath.Join(cfg.ProjectRoot, "install")
	return cfg
}

func TestRenderContainsInstallPaths(t *testing.T) {
	cfg := testConfig(t)
	out := Render(cfg)

	wantSubstrings := []string{
		filepath.Join(cfg.InstallSubprefix(models.ComponentNIXLBench), "bin"),
		filepath.Join(cfg.InstallSubprefix(models.ComponentUCX), "lib"),
		filepath.Join(cfg.InstallSubprefix(models.ComponentNIXL), "lib", "x86_64-linux-gnu"),
		filepath.Join(cfg.InstallSubprefix(models.ComponentNIXL), "lib", "x86_64-linux-gnu", "plugins"),
		filepath.Join(cfg.InstallSubprefix(models.ComponentEtcd), "lib"),
		"NIXL_PLUGIN_DIR",
		filepath.Join(cfg.VenvDir(), "bin", "activate"),
	}
	for _, want := range wantSubstrings {
		if !strings.Contains(out, want) {
			t.Errorf("rendered env file missing %q", want)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	cfg := testConfig(t)
	if Render(cfg) != Render(cfg) {
		t.Error("render must be deterministic for the same config")
	}
}

func TestRenderCUDAOnlyWhenFound(t *testing.T) {
	cfg := testConfig(t)

	without := Render(cfg)
	if strings.Contains(without, cfg.CUDAPath) {
		t.Error("cuda paths must not appear when the toolkit was not found")
	}

	cfg.CUDAFound = true
	with := Render(cfg)
	if !strings.Contains(with, filepath.Join(cfg.CUDAPath, "bin")) {
		t.Error("cuda bin dir missing from PATH when the toolkit was found")
	}
	if !strings.Contains(with, filepath.Join(cfg.CUDAPath, "lib64")) {
		t.Error("cuda lib64 missing from LD_LIBRARY_PATH when the toolkit was found")
	}
}

func TestWriteCreatesExecutableAndOverwrites(t *testing.T) {
	cfg := testConfig(t)
	path := cfg.EnvFilePath()

	// a stale previous version must be fully replaced
	if err := os.WriteFile(path, []byte("stale content"), 0644); err != nil {
		t.Fatalf("seeding stale file: %v", err)
	}

	res := Write(cfg)
	if res.Status != models.StepSuccess {
		t.Fatalf("write failed: %s", res.Reason)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat env file: %v", err)
	}
	if info.Mode()&0111 == 0 {
		t.Error("env file must be executable")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading env file: %v", err)
	}
	if strings.Contains(string(data), "stale content") {
		t.Error("env file must be regenerated, not merged")
	}
	if !strings.HasPrefix(string(data), "#!/bin/bash") {
		t.Error("env file must start with a shebang")
	}
}
