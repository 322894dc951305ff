package builder

import (
	"context"
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/spachava753/nixlup/internal/runner"
)

// ucxVersionSatisfied probes for a system-installed UCX and compares it
// against the minimum on major/minor only. Any probe or parse failure means
// "not satisfied" and the source build proceeds.
func ucxVersionSatisfied(ctx context.Context, run runner.Runner, minVersion string) (bool, string) {
	installed, err := installedUCXVersion(ctx, run)
	if err != nil {
		return false, ""
	}

	v, err := goversion.NewVersion(installed)
	if err != nil {
		return false, ""
	}
	min, err := goversion.NewVersion(minVersion)
	if err != nil {
		return false, ""
	}

	if !majorMinorAtLeast(v, min) {
		return false, ""
	}
	return true, fmt.Sprintf("system ucx %s >= %s", installed, minVersion)
}

// installedUCXVersion asks pkg-config first, then falls back to ucx_info.
func installedUCXVersion(ctx context.Context, run runner.Runner) (string, error) {
	out, err := run.Output(ctx, runner.Cmd{
		Name: "pkg-config", Args: []string{"--modversion", "ucx"},
	})
	if err == nil && strings.TrimSpace(out) != "" {
		return strings.TrimSpace(out), nil
	}

	out, err = run.Output(ctx, runner.Cmd{Name: "ucx_info", Args: []string{"-v"}})
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		if idx := strings.Index(line, "Library version:"); idx >= 0 {
			return strings.TrimSpace(line[idx+len("Library version:"):]), nil
		}
	}
	return "", fmt.Errorf("no library version in ucx_info output")
}

// majorMinorAtLeast compares only the first two version segments, matching
// how UCX consumers state their requirement (e.g. >= 1.21).
func majorMinorAtLeast(v, min *goversion.Version) bool {
	vs, ms := v.Segments(), min.Segments()
	if vs[0] != ms[0] {
		return vs[0] > ms[0]
	}
	return vs[1] >= ms[1]
}
