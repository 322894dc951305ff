package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/logging"
	"github.com/spachava753/nixlup/internal/orchestrator"
	"github.com/spachava753/nixlup/internal/runner"
)

// Version is set during build using ldflags.
var Version = "dev"

// errFatalStep marks a run that ended on a fatal pipeline step.
var errFatalStep = fmt.Errorf("pipeline failed")

// newCommand builds the CLI. Flag values layer over the built-in defaults and
// the optional config file; env vars sit between defaults and flags.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "nixlup",
		Version: Version,
		Usage:   "Build and install the NIXL transfer library, nixlbench and their dependencies from source",
		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			fmt.Fprintf(cmd.Root().ErrWriter, "Incorrect usage: %v\n\n", err)
			_ = cli.ShowAppHelp(cmd)
			return err
		},
		Flags: appFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.Setup(cmd.String("log-level"))

			cfg, err := resolveConfig(cmd)
			if err != nil {
				return cli.Exit(fmt.Errorf("resolving configuration: %w", err), 1)
			}

			orch := orchestrator.New(cfg, runner.NewExecRunner(nil))
			result, err := orch.Run(ctx)
			if err != nil {
				return cli.Exit(fmt.Errorf("running pipeline: %w", err), 1)
			}
			if result.Failed() {
				return cli.Exit(errFatalStep, 1)
			}
			return nil
		},
	}
}

// appFlags returns the full flag set, shared with the command tests.
func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a nixlup.yaml config file",
		},
		&cli.StringFlag{
			Name:    "build-dir",
			Usage:   "Directory for source checkouts and build trees",
			Sources: cli.EnvVars("NIXLUP_BUILD_DIR"),
		},
		&cli.StringFlag{
			Name:    "install-prefix",
			Usage:   "Root install prefix for all components",
			Sources: cli.EnvVars("NIXLUP_INSTALL_PREFIX"),
		},
		&cli.StringFlag{
			Name:    "cuda-path",
			Usage:   "CUDA toolkit root",
			Sources: cli.EnvVars("CUDA_PATH"),
		},
		&cli.StringFlag{
			Name:    "python-version",
			Usage:   "Python interpreter version for the virtual environment",
			Sources: cli.EnvVars("NIXLUP_PYTHON_VERSION"),
		},
		&cli.StringFlag{
			Name:    "build-type",
			Usage:   "Build type: debug, release or debugoptimized",
			Sources: cli.EnvVars("NIXLUP_BUILD_TYPE"),
		},
		&cli.StringFlag{
			Name:    "repo-url",
			Usage:   "NIXL repository URL",
			Sources: cli.EnvVars("NIXL_REPO_URL"),
		},
		&cli.StringFlag{
			Name:    "branch",
			Usage:   "NIXL branch to build",
			Sources: cli.EnvVars("NIXL_BRANCH"),
		},
		&cli.StringFlag{
			Name:    "ucx-min-version",
			Usage:   "Minimum system UCX version that skips the UCX build",
			Sources: cli.EnvVars("UCX_MIN_VERSION"),
		},
		&cli.StringFlag{
			Name:  "packages",
			Usage: "Path to a packages.toml overriding the built-in package sets",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn or error",
			Value:   "info",
			Sources: cli.EnvVars("NIXLUP_LOG_LEVEL"),
		},
		&cli.BoolFlag{Name: "skip-deps", Usage: "Skip system package installation"},
		&cli.BoolFlag{Name: "skip-etcd", Usage: "Skip the etcd-cpp-apiv3 build"},
		&cli.BoolFlag{Name: "skip-ucx", Usage: "Skip the UCX build"},
		&cli.BoolFlag{Name: "skip-nixl", Usage: "Skip the NIXL build"},
		&cli.BoolFlag{Name: "skip-nixlbench", Usage: "Skip the nixlbench build"},
		&cli.BoolFlag{Name: "clean", Usage: "Remove existing checkouts and rebuild from scratch"},
	}
}

// resolveConfig layers the optional config file, env vars and CLI flags over
// the defaults, in that precedence order. IsSet is true for both env-sourced
// and CLI-supplied values, so the file layer never shadows either.
func resolveConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	stringFields := map[string]*string{
		"build-dir":       &cfg.BuildDir,
		"install-prefix":  &cfg.InstallPrefix,
		"cuda-path":       &cfg.CUDAPath,
		"python-version":  &cfg.PythonVersion,
		"build-type":      &cfg.BuildType,
		"repo-url":        &cfg.RepoURL,
		"branch":          &cfg.Branch,
		"ucx-min-version": &cfg.UCXMinVersion,
		"packages":        &cfg.PackagesPath,
	}
	for name, field := range stringFields {
		if cmd.IsSet(name) {
			*field = cmd.String(name)
		}
	}

	boolFields := map[string]*bool{
		"skip-deps":      &cfg.SkipDeps,
		"skip-etcd":      &cfg.SkipEtcd,
		"skip-ucx":       &cfg.SkipUCX,
		"skip-nixl":      &cfg.SkipNIXL,
		"skip-nixlbench": &cfg.SkipNIXLBench,
		"clean":          &cfg.Clean,
	}
	for name, field := range boolFields {
		if cmd.IsSet(name) {
			*field = cmd.Bool(name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
