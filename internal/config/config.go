package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spachava753/nixlup/internal/models"
)

// Build types accepted by every downstream build system in the pipeline.
const (
	BuildTypeDebug          = "debug"
	BuildTypeRelease        = "release"
	BuildTypeDebugOptimized = "debugoptimized"
)

// Config is the fully resolved orchestrator configuration. It is immutable
// after resolution: stages that discover paths (e.g. the CUDA root) return an
// updated copy instead of mutating shared state or the process environment.
type Config struct {
	RepoURL       string `yaml:"repo_url"`
	Branch        string `yaml:"branch"`
	CUDAPath      string `yaml:"cuda_path"`
	PythonVersion string `yaml:"python_version"`
	BuildType     string `yaml:"build_type"`
	BuildDir      string `yaml:"build_dir"`
	InstallPrefix string `yaml:"install_prefix"`
	UCXMinVersion string `yaml:"ucx_min_version"`
	PackagesPath  string `yaml:"packages"` // optional packages.toml override

	SkipDeps      bool `yaml:"skip_deps"`
	SkipEtcd      bool `yaml:"skip_etcd"`
	SkipUCX       bool `yaml:"skip_ucx"`
	SkipNIXL      bool `yaml:"skip_nixl"`
	SkipNIXLBench bool `yaml:"skip_nixlbench"`
	Clean         bool `yaml:"clean"`

	// ProjectRoot anchors the generated env file. Defaults to the process
	// working directory.
	ProjectRoot string `yaml:"-"`

	// CUDAFound is set by the prerequisite stage when a usable toolkit root
	// was confirmed or discovered.
	CUDAFound bool `yaml:"-"`

	// ToolAliases maps a canonical tool name to the command that actually
	// resolved on this host (e.g. cmake -> cmake3).
	ToolAliases map[string]string `yaml:"-"`
}

// Default returns the built-in configuration, anchored at the process working
// directory.
func Default() Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return Config{
		RepoURL:       "https://github.com/ai-dynamo/nixl.git",
		Branch:        "main",
		CUDAPath:      "/usr/local/cuda",
		PythonVersion: "3.12",
		BuildType:     BuildTypeRelease,
		BuildDir:      filepath.Join(cwd, "build"),
		InstallPrefix: filepath.Join(cwd, "install"),
		UCXMinVersion: "1.21",
		ProjectRoot:   cwd,
	}
}

// Load overlays an optional nixlup.yaml file onto the defaults. Env and CLI
// overrides are applied on top by the command layer.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations no build system downstream would accept.
func (c Config) Validate() error {
	switch c.BuildType {
	case BuildTypeDebug, BuildTypeRelease, BuildTypeDebugOptimized:
	default:
		return fmt.Errorf("invalid build type %q (want debug, release or debugoptimized)", c.BuildType)
	}
	if c.BuildDir == "" {
		return fmt.Errorf("build directory must not be empty")
	}
	if c.InstallPrefix == "" {
		return fmt.Errorf("install prefix must not be empty")
	}
	return nil
}

// Tool returns the resolved command for a canonical tool name, honoring any
// alias recorded by the prerequisite scan.
func (c Config) Tool(name string) string {
	if alias, ok := c.ToolAliases[name]; ok {
		return alias
	}
	return name
}

// WithToolAlias returns a copy with one more tool alias recorded.
func (c Config) WithToolAlias(name, resolved string) Config {
	aliases := make(map[string]string, len(c.ToolAliases)+1)
	for k, v := range c.ToolAliases {
		aliases[k] = v
	}
	aliases[name] = resolved
	c.ToolAliases = aliases
	return c
}

// SourceDir is the checkout directory for a component.
func (c Config) SourceDir(name string) string {
	if name == models.ComponentNIXLBench {
		// nixlbench lives inside the nixl tree
		return filepath.Join(c.BuildDir, models.ComponentNIXL, "benchmark", "nixlbench")
	}
	return filepath.Join(c.BuildDir, name)
}

// BuildSubdir is the out-of-tree build directory for a component.
func (c Config) BuildSubdir(name string) string {
	return filepath.Join(c.SourceDir(name), "build")
}

// InstallSubprefix is the per-component install prefix.
func (c Config) InstallSubprefix(name string) string {
	if name == models.ComponentEtcd {
		// historical install dir name differs from the repo name
		return filepath.Join(c.InstallPrefix, "etcd-cpp-api")
	}
	return filepath.Join(c.InstallPrefix, name)
}

// VenvDir is the Python virtual environment shared by the meson builds.
func (c Config) VenvDir() string {
	return filepath.Join(c.BuildDir, ".venv")
}

// EnvFilePath is where the shell-sourceable environment file is written.
func (c Config) EnvFilePath() string {
	return filepath.Join(c.ProjectRoot, "nixl_env.sh")
}

// Components returns the pipeline's component set in build order.
func (c Config) Components() []models.Component {
	return []models.Component{
		{
			Name:    models.ComponentEtcd,
			RepoURL: "https://github.com/etcd-cpp-apiv3/etcd-cpp-apiv3.git",
			Branch:  "master",
		},
		{
			Name:    models.ComponentUCX,
			RepoURL: "https://github.com/openucx/ucx.git",
			Branch:  "master",
		},
		{
			Name:     models.ComponentNIXL,
			RepoURL:  c.RepoURL,
			Branch:   c.Branch,
			Required: true,
		},
		{
			// fetched as part of the nixl tree; no separate clone
			Name: models.ComponentNIXLBench,
		},
	}
}

// Skipped reports whether the user disabled a component build.
func (c Config) Skipped(name string) bool {
	switch name {
	case models.ComponentEtcd:
		return c.SkipEtcd
	case models.ComponentUCX:
		return c.SkipUCX
	case models.ComponentNIXL:
		return c.SkipNIXL
	case models.ComponentNIXLBench:
		return c.SkipNIXLBench
	}
	return false
}
