package prereq

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
	"github.com/spachava753/nixlup/internal/runner"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	// point at an empty dir so host CUDA installs don't leak into tests
	cfg.CUDAPath = t.TempDir()
	return cfg
}

func TestAllToolsPresent(t *testing.T) {
	fake := runner.NewFakeRunner()
	fake.MissingTools["nvcc"] = true
	c := New(fake)

	_, res := c.Check(context.Background(), testConfig(t))
	if res.Status != models.StepSuccess {
		t.Errorf("expected success with all tools present, got %s: %s", res.Status, res.Reason)
	}
}

func TestMissingToolsAccumulate(t *testing.T) {
	fake := runner.NewFakeRunner()
	fake.MissingTools["git"] = true
	fake.MissingTools["autoconf"] = true
	fake.MissingTools["nvcc"] = true
	c := New(fake)

	_, res := c.Check(context.Background(), testConfig(t))

	if res.Status != models.StepFatal {
		t.Fatalf("missing required tools must be fatal, got %s", res.Status)
	}
	if !strings.Contains(res.Reason, "git") || !strings.Contains(res.Reason, "autoconf") {
		t.Errorf("consolidated reason should list every missing tool, got %q", res.Reason)
	}
}

func TestCmakeAlternateNameAliased(t *testing.T) {
	fake := runner.NewFakeRunner()
	fake.MissingTools["cmake"] = true
	fake.MissingTools["nvcc"] = true
	c := New(fake)

	cfg, res := c.Check(context.Background(), testConfig(t))

	if res.Status != models.StepSuccess {
		t.Fatalf("cmake3 should satisfy the cmake requirement, got %s: %s", res.Status, res.Reason)
	}
	if got := cfg.Tool("cmake"); got != "cmake3" {
		t.Errorf("expected cmake aliased to cmake3, got %q", got)
	}
}

func TestBothCmakeNamesMissing(t *testing.T) {
	fake := runner.NewFakeRunner()
	fake.MissingTools["cmake"] = true
	fake.MissingTools["cmake3"] = true
	fake.MissingTools["nvcc"] = true
	c := New(fake)

	_, res := c.Check(context.Background(), testConfig(t))

	if res.Status != models.StepFatal {
		t.Fatalf("expected fatal when no cmake name resolves, got %s", res.Status)
	}
	if !strings.Contains(res.Reason, "cmake") {
		t.Errorf("reason should mention cmake, got %q", res.Reason)
	}
}

func TestCUDAConfiguredPathConfirmed(t *testing.T) {
	fake := runner.NewFakeRunner()
	c := New(fake)

	cfg := testConfig(t)
	binDir := filepath.Join(cfg.CUDAPath, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		t.Fatalf("creating cuda bin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "nvcc"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("creating fake nvcc: %v", err)
	}

	got, res := c.Check(context.Background(), cfg)
	if res.Status != models.StepSuccess {
		t.Fatalf("expected success, got %s: %s", res.Status, res.Reason)
	}
	if !got.CUDAFound {
		t.Error("configured cuda path with nvcc should be confirmed")
	}
	if got.CUDAPath != cfg.CUDAPath {
		t.Errorf("cuda path should be unchanged, got %q", got.CUDAPath)
	}
}

func TestCUDADiscoveredFromPATH(t *testing.T) {
	fake := runner.NewFakeRunner()
	// fake LookPath resolves nvcc to /usr/bin/nvcc
	c := New(fake)

	got, res := c.Check(context.Background(), testConfig(t))
	if res.Status != models.StepSuccess {
		t.Fatalf("expected success, got %s: %s", res.Status, res.Reason)
	}
	if !got.CUDAFound {
		t.Error("nvcc on PATH should mark cuda as found")
	}
	if got.CUDAPath != "/usr" {
		t.Errorf("toolkit root should derive from the nvcc location, got %q", got.CUDAPath)
	}
}

func TestCUDANotFoundIsOnlyAWarning(t *testing.T) {
	fake := runner.NewFakeRunner()
	fake.MissingTools["nvcc"] = true
	c := New(fake)

	_, res := c.Check(context.Background(), testConfig(t))
	if res.Status != models.StepSuccess {
		t.Fatalf("cuda absence must not block, got %s", res.Status)
	}
}
