package sandbox

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app")

	tests := []struct {
		name     string
		target   string
		wantSafe bool
		wantPath string
	}{
		{"simple file", "docker-compose.yml", true, filepath.Join(base, "docker-compose.yml")},
		{"nested file", "conf/nginx.conf", true, filepath.Join(base, "conf", "nginx.conf")},
		{"base itself", ".", true, base},
		{"dot segments inside", "conf/../.env", true, filepath.Join(base, ".env")},
		{"parent escape", "../other/file", false, filepath.Join(filepath.Dir(base), "other", "file")},
		{"deep escape", "../../etc/passwd", false, filepath.Clean(filepath.Join(base, "../../etc/passwd"))},
		{"sibling prefix", "../app2/file", false, filepath.Join(filepath.Dir(base), "app2", "file")},
		{"absolute inside", filepath.Join(base, "x.txt"), true, filepath.Join(base, "x.txt")},
		{"absolute outside", "/etc/passwd", false, "/etc/passwd"},
		{"dotdot prefixed name", "..env", true, filepath.Join(base, "..env")},
		{"escape then return", "../app/file", true, filepath.Join(base, "file")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Check(base, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSafe, res.Safe)
			assert.Equal(t, tt.wantPath, res.Path)
		})
	}
}

func TestCheckEmptyInputs(t *testing.T) {
	_, err := Check("", "file")
	assert.ErrorIs(t, err, ErrEmptyBase)

	_, err = Check("/srv", "")
	assert.ErrorIs(t, err, ErrEmptyTarget)
}

func TestContainsComponentBoundary(t *testing.T) {
	assert.True(t, Contains("/srv/app", "/srv/app"))
	assert.True(t, Contains("/srv/app", "/srv/app/a/b"))
	assert.False(t, Contains("/srv/app", "/srv/app2"))
	assert.False(t, Contains("/srv/app", "/srv"))
}

func TestJoin(t *testing.T) {
	root := t.TempDir()

	p, err := Join(root, "web")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "web"), p)

	_, err = Join(root, "../web")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEscapes))
}
