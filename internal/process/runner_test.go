package process

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_RunInDir(t *testing.T) {
	requireShell(t)
	r := NewExecRunner()
	dir := t.TempDir()

	stdout, stderr, code, err := r.RunInDir(context.Background(), dir, []string{"GREETING=hi"}, "sh", "-c", `echo "$GREETING"; pwd; echo oops >&2`)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "oops\n", stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "hi", lines[0])
	// macOS temp dirs sit behind a symlink.
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(lines[1])
	assert.Equal(t, want, got)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)
	r := NewExecRunner()

	_, stderr, code, err := r.RunInDir(context.Background(), "", nil, "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "broken\n", stderr)

	var exitErr *exec.ExitError
	assert.ErrorAs(t, err, &exitErr)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := NewExecRunner()
	_, _, code, err := r.RunInDir(context.Background(), "", nil, "composed-no-such-binary")
	require.Error(t, err)
	assert.Equal(t, -1, code)
}

func TestExecRunner_RunCombined(t *testing.T) {
	requireShell(t)
	r := NewExecRunner()

	out, code, err := r.RunCombined(context.Background(), "sh", "-c", "echo one; echo two >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, string(out), "one\n")
	assert.Contains(t, string(out), "two\n")
}

func TestMockRunner_RecordsCalls(t *testing.T) {
	m := &MockRunner{
		RunInDirFunc: func(ctx context.Context, dir string, env []string, name string, args ...string) (string, string, int, error) {
			return "ok", "", 0, nil
		},
	}

	out, _, _, err := m.RunInDir(context.Background(), "/srv/app", []string{"A=1"}, "docker-compose", "ps")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/srv/app", calls[0].Dir)
	assert.Equal(t, []string{"ps"}, calls[0].Args)

	assert.Panics(t, func() {
		_, _, _ = m.RunCombined(context.Background(), "docker")
	})
}
