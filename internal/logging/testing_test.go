package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestTestLogger_Assertions(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Info(ctx, "project scanned", zap.String("root", "/srv/compose"), zap.Int("projects", 3))

	tl.AssertLogged(t, zapcore.InfoLevel, "scanned")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "scanned")
	tl.AssertField(t, "project scanned", "root", "/srv/compose")
	tl.AssertField(t, "project scanned", "projects", int64(3))
	tl.AssertNoSecrets(t)

	tl.Reset()
	assert.Empty(t, tl.All())
}

func TestTestLogger_DetectsLeaks(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "unsafe", zap.String("password", "hunter2"))

	rec := &recordingTB{}
	tl.AssertNoSecrets(rec)
	assert.True(t, rec.failed)
}

// recordingTB records failures instead of failing the enclosing test.
type recordingTB struct {
	testing.TB
	failed bool
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(string, ...any) { r.failed = true }
