package builder

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spachava753/nixlup/internal/config"
	"github.com/spachava753/nixlup/internal/models"
	"github.com/spachava753/nixlup/internal/runner"
)

// cmakeBuildType maps the shared build-type enum onto CMake's vocabulary.
// meson uses the enum values natively.
var cmakeBuildType = map[string]string{
	config.BuildTypeDebug:          "Debug",
	config.BuildTypeRelease:        "Release",
	config.BuildTypeDebugOptimized: "RelWithDebInfo",
}

// Recipes returns the four component recipes in build order for the given
// component descriptors.
func (b *Builder) Recipes() []Recipe {
	var recipes []Recipe
	for _, comp := range b.cfg.Components() {
		switch comp.Name {
		case models.ComponentEtcd:
			recipes = append(recipes, &etcdRecipe{b: b, comp: comp})
		case models.ComponentUCX:
			recipes = append(recipes, &ucxRecipe{b: b, comp: comp})
		case models.ComponentNIXL:
			recipes = append(recipes, &nixlRecipe{b: b, comp: comp})
		case models.ComponentNIXLBench:
			recipes = append(recipes, &nixlbenchRecipe{b: b, comp: comp})
		}
	}
	return recipes
}

// etcdRecipe builds the etcd-cpp-apiv3 coordination client with CMake.
type etcdRecipe struct {
	b    *Builder
	comp models.Component
}

func (r *etcdRecipe) Component() models.Component { return r.comp }

func (r *etcdRecipe) Configure(ctx context.Context) error {
	buildDir, err := r.b.ensureBuildDir(r.comp.Name)
	if err != nil {
		return err
	}
	cmake := r.b.cfg.Tool("cmake")
	return r.b.run.Run(ctx, runner.Cmd{
		Name: cmake,
		Args: []string{
			"..",
			"-DCMAKE_INSTALL_PREFIX=" + r.b.cfg.InstallSubprefix(r.comp.Name),
			"-DCMAKE_BUILD_TYPE=" + cmakeBuildType[r.b.cfg.BuildType],
			"-DBUILD_ETCD_CORE_ONLY=ON",
		},
		Dir: buildDir,
	})
}

func (r *etcdRecipe) Build(ctx context.Context) error {
	return r.b.run.Run(ctx, runner.Cmd{
		Name: "make",
		Args: []string{jobsArg()},
		Dir:  r.b.cfg.BuildSubdir(r.comp.Name),
	})
}

func (r *etcdRecipe) Install(ctx context.Context) error {
	return r.b.install(ctx, r.b.cfg.BuildSubdir(r.comp.Name), "make", "install")
}

// ucxRecipe builds UCX with autotools. A system install at or above the
// minimum version short-circuits the whole component.
type ucxRecipe struct {
	b    *Builder
	comp models.Component
}

func (r *ucxRecipe) Component() models.Component { return r.comp }

func (r *ucxRecipe) Satisfied(ctx context.Context) (bool, string) {
	return ucxVersionSatisfied(ctx, r.b.run, r.b.cfg.UCXMinVersion)
}

func (r *ucxRecipe) Configure(ctx context.Context) error {
	srcDir := r.b.cfg.SourceDir(r.comp.Name)

	autogen := runner.Cmd{Name: "./autogen.sh", Dir: srcDir}
	if err := r.b.run.Run(ctx, autogen); err != nil {
		return err
	}

	buildDir, err := r.b.ensureBuildDir(r.comp.Name)
	if err != nil {
		return err
	}

	args := []string{
		"--prefix=" + r.b.cfg.InstallSubprefix(r.comp.Name),
		"--enable-shared",
		"--disable-static",
		"--disable-doxygen-doc",
	}
	if r.b.cfg.BuildType == config.BuildTypeDebug {
		args = append(args, "--enable-debug")
	}
	if r.b.cfg.CUDAFound {
		args = append(args, "--with-cuda="+r.b.cfg.CUDAPath)
	}

	return r.b.run.Run(ctx, runner.Cmd{Name: "../configure", Args: args, Dir: buildDir})
}

func (r *ucxRecipe) Build(ctx context.Context) error {
	return r.b.run.Run(ctx, runner.Cmd{
		Name: "make",
		Args: []string{jobsArg()},
		Dir:  r.b.cfg.BuildSubdir(r.comp.Name),
	})
}

func (r *ucxRecipe) Install(ctx context.Context) error {
	return r.b.install(ctx, r.b.cfg.BuildSubdir(r.comp.Name), "make", "install")
}

// nixlRecipe builds the transfer library itself with meson, using the
// pipeline's Python environment for meson and ninja.
type nixlRecipe struct {
	b    *Builder
	comp models.Component
}

func (r *nixlRecipe) Component() models.Component { return r.comp }

// venvEnv yields the env entries that put the venv's meson/ninja first and
// let pkg-config see the freshly installed UCX.
func (r *nixlRecipe) venvEnv() []string {
	venvBin := filepath.Join(r.b.cfg.VenvDir(), "bin")
	ucxPkgConfig := filepath.Join(r.b.cfg.InstallSubprefix(models.ComponentUCX), "lib", "pkgconfig")
	return []string{
		"PATH=" + venvBin + string(os.PathListSeparator) + os.Getenv("PATH"),
		"VIRTUAL_ENV=" + r.b.cfg.VenvDir(),
		"PKG_CONFIG_PATH=" + ucxPkgConfig,
	}
}

func (r *nixlRecipe) Configure(ctx context.Context) error {
	args := []string{
		"setup", "build",
		"--prefix=" + r.b.cfg.InstallSubprefix(r.comp.Name),
		"--buildtype=" + r.b.cfg.BuildType,
		"-Ducx_path=" + r.b.cfg.InstallSubprefix(models.ComponentUCX),
	}
	if r.b.cfg.CUDAFound {
		args = append(args, "-Dcudapath_inc="+filepath.Join(r.b.cfg.CUDAPath, "include"),
			"-Dcudapath_lib="+filepath.Join(r.b.cfg.CUDAPath, "lib64"))
	}
	return r.b.run.Run(ctx, runner.Cmd{
		Name: "meson",
		Args: args,
		Dir:  r.b.cfg.SourceDir(r.comp.Name),
		Env:  r.venvEnv(),
	})
}

func (r *nixlRecipe) Build(ctx context.Context) error {
	return r.b.run.Run(ctx, runner.Cmd{
		Name: "ninja",
		Args: []string{"-C", "build"},
		Dir:  r.b.cfg.SourceDir(r.comp.Name),
		Env:  r.venvEnv(),
	})
}

func (r *nixlRecipe) Install(ctx context.Context) error {
	return r.b.install(ctx, r.b.cfg.SourceDir(r.comp.Name), "ninja", "-C", "build", "install")
}

// nixlbenchRecipe builds the benchmark tool from its nested directory inside
// the nixl tree.
type nixlbenchRecipe struct {
	b    *Builder
	comp models.Component
}

func (r *nixlbenchRecipe) Component() models.Component { return r.comp }

func (r *nixlbenchRecipe) venvEnv() []string {
	venvBin := filepath.Join(r.b.cfg.VenvDir(), "bin")
	return []string{
		"PATH=" + venvBin + string(os.PathListSeparator) + os.Getenv("PATH"),
		"VIRTUAL_ENV=" + r.b.cfg.VenvDir(),
	}
}

func (r *nixlbenchRecipe) Configure(ctx context.Context) error {
	etcdPrefix := r.b.cfg.InstallSubprefix(models.ComponentEtcd)
	args := []string{
		"setup", "build",
		"--prefix=" + r.b.cfg.InstallSubprefix(r.comp.Name),
		"--buildtype=" + r.b.cfg.BuildType,
		"-Dnixl_path=" + r.b.cfg.InstallSubprefix(models.ComponentNIXL),
		"-Ducx_path=" + r.b.cfg.InstallSubprefix(models.ComponentUCX),
		"-Detcd_inc_path=" + filepath.Join(etcdPrefix, "include"),
		"-Detcd_lib_path=" + filepath.Join(etcdPrefix, "lib"),
	}
	return r.b.run.Run(ctx, runner.Cmd{
		Name: "meson",
		Args: args,
		Dir:  r.b.cfg.SourceDir(r.comp.Name),
		Env:  r.venvEnv(),
	})
}

func (r *nixlbenchRecipe) Build(ctx context.Context) error {
	return r.b.run.Run(ctx, runner.Cmd{
		Name: "ninja",
		Args: []string{"-C", "build"},
		Dir:  r.b.cfg.SourceDir(r.comp.Name),
		Env:  r.venvEnv(),
	})
}

func (r *nixlbenchRecipe) Install(ctx context.Context) error {
	return r.b.install(ctx, r.b.cfg.SourceDir(r.comp.Name), "ninja", "-C", "build", "install")
}
