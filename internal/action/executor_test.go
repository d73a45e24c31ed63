package action

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/composed/internal/apperr"
	"github.com/fyrsmithlabs/composed/internal/compose"
	"github.com/fyrsmithlabs/composed/internal/process"
)

func setupExecutor(t *testing.T, runner process.Runner, cfg Config) (*Executor, string, *observer.ObservedLogs) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "shop")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("services:\n  web:\n    image: nginx\n"), 0o644))

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	idx, err := compose.NewIndex(root, nil, logger)
	require.NoError(t, err)
	exec, err := NewExecutor(idx, runner, cfg, logger)
	require.NoError(t, err)
	exec.environ = func() []string { return []string{"PATH=/bin"} }
	return exec, dir, logs
}

func TestNewExecutor_Validation(t *testing.T) {
	idx, err := compose.NewIndex(t.TempDir(), nil, zap.NewNop())
	require.NoError(t, err)

	_, err = NewExecutor(nil, &process.MockRunner{}, Config{}, zap.NewNop())
	assert.Error(t, err)
	_, err = NewExecutor(idx, nil, Config{}, zap.NewNop())
	assert.Error(t, err)
	_, err = NewExecutor(idx, &process.MockRunner{}, Config{}, nil)
	assert.Error(t, err)
}

func TestExecutor_ProjectCreate(t *testing.T) {
	runner := &process.MockRunner{
		RunInDirFunc: func(ctx context.Context, dir string, env []string, name string, args ...string) (string, string, int, error) {
			return "", "Creating shop_web_1 ... done\n", 0, nil
		},
	}
	exec, dir, logs := setupExecutor(t, runner, Config{})

	a, err := New("create", "")
	require.NoError(t, err)

	projects, err := exec.Run(context.Background(), "shop", a)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "docker-compose", calls[0].Name)
	assert.Equal(t, []string{"up", "--no-start"}, calls[0].Args)
	assert.Equal(t, dir, calls[0].Dir)
	assert.Equal(t, []string{"PATH=/bin"}, calls[0].Env)

	entries := logs.FilterMessage("compose action succeeded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Creating shop_web_1 ... done", entries[0].ContextMap()["output"])
}

func TestExecutor_CommandPrefixAndNarrowedEnv(t *testing.T) {
	runner := &process.MockRunner{
		RunInDirFunc: func(ctx context.Context, dir string, env []string, name string, args ...string) (string, string, int, error) {
			return "", "", 0, nil
		},
	}
	exec, _, logs := setupExecutor(t, runner, Config{Command: []string{"docker", "compose"}, PassEnv: []string{"SSH_AUTH_SOCK"}})
	exec.environ = func() []string { return []string{"PATH=/bin", "DOCKER_HOST=ssh://box", "TOKEN=x", "SSH_AUTH_SOCK=/tmp/agent"} }

	a, err := New("build", "web")
	require.NoError(t, err)
	_, err = exec.Run(context.Background(), "shop", a)
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "docker", calls[0].Name)
	assert.Equal(t, []string{"compose", "build", "--pull", "web"}, calls[0].Args)
	assert.Equal(t, []string{"PATH=/bin", "DOCKER_HOST=ssh://box", "SSH_AUTH_SOCK=/tmp/agent"}, calls[0].Env)

	entries := logs.FilterMessage("compose action succeeded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, NoOutput, entries[0].ContextMap()["output"])
}

func TestExecutor_Failures(t *testing.T) {
	tests := []struct {
		name       string
		stderr     string
		wantDetail string
	}{
		{"stderr reported", "ERROR: No such service: cache\n\n", "ERROR: No such service: cache"},
		{"no stderr", "", "compose command failed: exit status 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &process.MockRunner{
				RunInDirFunc: func(ctx context.Context, dir string, env []string, name string, args ...string) (string, string, int, error) {
					return "", tt.stderr, 1, errors.New("exit status 1")
				},
			}
			exec, _, _ := setupExecutor(t, runner, Config{})

			a, err := New("up", "cache")
			require.NoError(t, err)
			_, err = exec.Run(context.Background(), "shop", a)
			require.Error(t, err)
			assert.Equal(t, apperr.KindExternalTool, apperr.KindOf(err))
			assert.Equal(t, 400, apperr.StatusOf(err))
			assert.Equal(t, tt.wantDetail, err.Error())
		})
	}
}

func TestExecutor_UnknownProject(t *testing.T) {
	runner := &process.MockRunner{}
	exec, _, _ := setupExecutor(t, runner, Config{})

	a, err := New("up", "")
	require.NoError(t, err)
	_, err = exec.Run(context.Background(), "ghost", a)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Empty(t, runner.Calls())
}

func TestExecutor_IgnoresCallerCancellation(t *testing.T) {
	var sawCancel bool
	runner := &process.MockRunner{
		RunInDirFunc: func(ctx context.Context, dir string, env []string, name string, args ...string) (string, string, int, error) {
			sawCancel = ctx.Err() != nil
			return "ok", "", 0, nil
		},
	}
	exec, _, _ := setupExecutor(t, runner, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := New("down", "")
	require.NoError(t, err)
	_, err = exec.Run(ctx, "shop", a)
	require.NoError(t, err)
	assert.Len(t, runner.Calls(), 1)
	assert.False(t, sawCancel)
}
