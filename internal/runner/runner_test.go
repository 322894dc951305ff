package runner

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestCmdString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Cmd
		want string
	}{
		{"bare", Cmd{Name: "ldconfig"}, "ldconfig"},
		{"with args", Cmd{Name: "git", Args: []string{"pull", "--ff-only"}}, "git pull --ff-only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExecRunnerOutput(t *testing.T) {
	r := NewExecRunner(nil)

	out, err := r.Output(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "echo hello"}})
	if err != nil {
		t.Fatalf("running echo: %v", err)
	}
	if out != "hello" {
		t.Errorf("expected trimmed output %q, got %q", "hello", out)
	}
}

func TestExecRunnerOutputFailure(t *testing.T) {
	r := NewExecRunner(nil)

	_, err := r.Output(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "echo oops >&2; exit 3"}})
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if ExitCode(err) != 3 {
		t.Errorf("expected exit code 3, got %d", ExitCode(err))
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}

func TestExecRunnerRunWorkingDir(t *testing.T) {
	r := NewExecRunner(nil)
	dir := t.TempDir()

	out, err := r.Output(context.Background(), Cmd{Name: "pwd", Dir: dir})
	if err != nil {
		t.Fatalf("running pwd: %v", err)
	}
	// the temp dir may come back through a symlink, so compare the leaf
	if !strings.HasSuffix(out, filepath.Base(dir)) {
		t.Errorf("expected pwd under %q, got %q", dir, out)
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("nil error should be exit 0, got %d", got)
	}
	if got := ExitCode(context.Canceled); got != -1 {
		t.Errorf("non-exec error should be -1, got %d", got)
	}
}

func TestFakeRunnerRecording(t *testing.T) {
	f := NewFakeRunner()
	ctx := context.Background()

	if err := f.Run(ctx, Cmd{Name: "make", Args: []string{"-j4"}, Dir: "/b/ucx/build"}); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}

	if !f.CalledWithPrefix("make -j") {
		t.Error("expected make call recorded")
	}
	if !f.CalledInDir("/b/ucx/build") {
		t.Error("expected working directory recorded")
	}
}

func TestFakeRunnerFailPrefix(t *testing.T) {
	f := NewFakeRunner()
	f.FailPrefixes = []string{"sudo make install"}
	ctx := context.Background()

	if err := f.Run(ctx, Cmd{Name: "sudo", Args: []string{"make", "install"}}); err == nil {
		t.Error("expected configured failure")
	}
	if err := f.Run(ctx, Cmd{Name: "make", Args: []string{"install"}}); err != nil {
		t.Errorf("unrelated command should succeed: %v", err)
	}
}

func TestFakeRunnerLookPath(t *testing.T) {
	f := NewFakeRunner()
	f.MissingTools["cmake"] = true

	if _, err := f.LookPath("cmake"); err == nil {
		t.Error("expected missing tool error")
	}
	if path, err := f.LookPath("git"); err != nil || path == "" {
		t.Errorf("expected git to resolve, got %q, %v", path, err)
	}
}
