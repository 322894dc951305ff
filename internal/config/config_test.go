package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spachava753/nixlup/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.BuildType != BuildTypeRelease {
		t.Errorf("expected default build type release, got %q", cfg.BuildType)
	}
	if cfg.PythonVersion != "3.12" {
		t.Errorf("expected default python version 3.12, got %q", cfg.PythonVersion)
	}
	if cfg.CUDAPath != "/usr/local/cuda" {
		t.Errorf("expected default cuda path /usr/local/cuda, got %q", cfg.CUDAPath)
	}
	if cfg.UCXMinVersion != "1.21" {
		t.Errorf("expected default ucx min version 1.21, got %q", cfg.UCXMinVersion)
	}
	if cfg.SkipDeps || cfg.SkipEtcd || cfg.SkipUCX || cfg.SkipNIXL || cfg.SkipNIXLBench || cfg.Clean {
		t.Error("expected all skip flags false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateBuildType(t *testing.T) {
	tests := []struct {
		buildType string
		wantErr   bool
	}{
		{"debug", false},
		{"release", false},
		{"debugoptimized", false},
		{"Release", true},
		{"fast", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.buildType, func(t *testing.T) {
			cfg := Default()
			cfg.BuildType = tt.buildType
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error for build type %q", tt.buildType)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for build type %q: %v", tt.buildType, err)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.BuildDir = "/b"
	cfg.InstallPrefix = "/i"

	if got := cfg.SourceDir(models.ComponentUCX); got != "/b/ucx" {
		t.Errorf("ucx source dir: got %q", got)
	}
	if got := cfg.BuildSubdir(models.ComponentUCX); got != "/b/ucx/build" {
		t.Errorf("ucx build subdir: got %q", got)
	}
	if got := cfg.SourceDir(models.ComponentNIXLBench); got != "/b/nixl/benchmark/nixlbench" {
		t.Errorf("nixlbench source dir should nest inside the nixl tree: got %q", got)
	}
	if got := cfg.InstallSubprefix(models.ComponentEtcd); got != "/i/etcd-cpp-api" {
		t.Errorf("etcd install prefix: got %q", got)
	}
	if got := cfg.InstallSubprefix(models.ComponentNIXL); got != "/i/nixl" {
		t.Errorf("nixl install prefix: got %q", got)
	}
	if got := cfg.VenvDir(); got != "/b/.venv" {
		t.Errorf("venv dir: got %q", got)
	}
}

func TestSkippedMapping(t *testing.T) {
	cfg := Default()
	cfg.SkipUCX = true
	cfg.SkipNIXLBench = true

	if !cfg.Skipped(models.ComponentUCX) {
		t.Error("ucx should be skipped")
	}
	if !cfg.Skipped(models.ComponentNIXLBench) {
		t.Error("nixlbench should be skipped")
	}
	if cfg.Skipped(models.ComponentEtcd) || cfg.Skipped(models.ComponentNIXL) {
		t.Error("etcd and nixl should not be skipped")
	}
}

func TestToolAliases(t *testing.T) {
	cfg := Default()

	if got := cfg.Tool("cmake"); got != "cmake" {
		t.Errorf("unaliased tool should resolve to itself, got %q", got)
	}

	aliased := cfg.WithToolAlias("cmake", "cmake3")
	if got := aliased.Tool("cmake"); got != "cmake3" {
		t.Errorf("aliased tool: got %q", got)
	}
	// the original copy stays untouched
	if got := cfg.Tool("cmake"); got != "cmake" {
		t.Errorf("WithToolAlias must not mutate the receiver, got %q", got)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nixlup.yaml")
	content := "build_type: debug\nskip_ucx: true\nbranch: v0.4\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.BuildType != "debug" {
		t.Errorf("expected build type debug, got %q", cfg.BuildType)
	}
	if !cfg.SkipUCX {
		t.Error("expected skip_ucx true")
	}
	if cfg.Branch != "v0.4" {
		t.Errorf("expected branch v0.4, got %q", cfg.Branch)
	}
	// unspecified fields keep their defaults
	if cfg.PythonVersion != "3.12" {
		t.Errorf("expected default python version, got %q", cfg.PythonVersion)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestComponentsOrder(t *testing.T) {
	cfg := Default()
	cfg.RepoURL = "https://example.com/nixl.git"
	cfg.Branch = "dev"

	comps := cfg.Components()
	want := []string{models.ComponentEtcd, models.ComponentUCX, models.ComponentNIXL, models.ComponentNIXLBench}
	if len(comps) != len(want) {
		t.Fatalf("expected %d components, got %d", len(want), len(comps))
	}
	for i, name := range want {
		if comps[i].Name != name {
			t.Errorf("component %d: expected %s, got %s", i, name, comps[i].Name)
		}
	}

	nixl := comps[2]
	if !nixl.Required {
		t.Error("nixl should be the required component")
	}
	if nixl.RepoURL != cfg.RepoURL || nixl.Branch != cfg.Branch {
		t.Error("nixl should use the configured repo and branch")
	}
	if comps[3].RepoURL != "" {
		t.Error("nixlbench should have no separate repo")
	}
}
