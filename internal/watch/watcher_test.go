package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/composed/internal/compose"
)

func waitForScan(t *testing.T, w *Watcher, match func(compose.ScanResult) bool) compose.ScanResult {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-w.Scans():
			if match(res) {
				return res
			}
		case <-deadline:
			t.Fatal("timed out waiting for rescan")
		}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, 0, zap.NewNop())
	assert.Error(t, err)

	idx, err := compose.NewIndex(t.TempDir(), nil, zap.NewNop())
	require.NoError(t, err)
	_, err = New(idx, 0, nil)
	assert.Error(t, err)

	w, err := New(idx, 0, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	w.Stop()
}

func TestWatcher_RescansOnNewProject(t *testing.T) {
	root := t.TempDir()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	idx, err := compose.NewIndex(root, nil, logger)
	require.NoError(t, err)
	w, err := New(idx, 20*time.Millisecond, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	initial := waitForScan(t, w, func(compose.ScanResult) bool { return true })
	assert.Empty(t, initial.Projects)

	// Stage the project elsewhere so it appears in the root in one step.
	staged := filepath.Join(t.TempDir(), "shop")
	require.NoError(t, os.MkdirAll(staged, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "docker-compose.yml"), []byte("services:\n  web: {}\n"), 0o644))
	require.NoError(t, os.Rename(staged, filepath.Join(root, "shop")))

	res := waitForScan(t, w, func(r compose.ScanResult) bool { return len(r.Projects) == 1 })
	assert.Equal(t, "shop", res.Projects[0].Name)
	assert.NotEmpty(t, logs.FilterMessage("compose root changed").All())
}

func TestWatcher_StopCancelsPendingRescan(t *testing.T) {
	root := t.TempDir()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	idx, err := compose.NewIndex(root, nil, logger)
	require.NoError(t, err)
	w, err := New(idx, 200*time.Millisecond, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	waitForScan(t, w, func(compose.ScanResult) bool { return true })

	// The event arms the debounce timer; Stop lands before it fires.
	require.NoError(t, os.Mkdir(filepath.Join(root, "shop"), 0o755))
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, logs.FilterMessage("compose root changed").All())
}

func TestRelevant(t *testing.T) {
	root := "/srv/compose"

	assert.True(t, relevant(root, fsnotify.Event{Name: "/srv/compose/shop", Op: fsnotify.Create}))
	assert.True(t, relevant(root, fsnotify.Event{Name: "/srv/compose/shop", Op: fsnotify.Remove}))
	assert.True(t, relevant(root, fsnotify.Event{Name: "/srv/compose/shop/compose.yaml", Op: fsnotify.Write}))
	assert.False(t, relevant(root, fsnotify.Event{Name: "/srv/compose/shop/nginx.conf", Op: fsnotify.Write}))
	assert.False(t, relevant(root, fsnotify.Event{Name: "/srv/compose/shop", Op: fsnotify.Chmod}))
}
