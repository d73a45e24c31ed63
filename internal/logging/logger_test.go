package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/composed/internal/config"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, logger.Underlying())
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
	_ = logger.Sync()
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestNewLogger_OTELOnlyWithoutProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stdout = false
	cfg.Output.OTEL = true

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one output")
}

func TestFromSettings(t *testing.T) {
	cfg, err := FromSettings(config.LoggingConfig{Level: "WARN", Format: "console"}, false)
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.True(t, cfg.Sampling.Enabled)
	assert.False(t, cfg.Output.OTEL)

	cfg, err = FromSettings(config.LoggingConfig{Level: "trace"}, true)
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.False(t, cfg.Sampling.Enabled)
	assert.True(t, cfg.Output.OTEL)

	_, err = FromSettings(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestLogger_LevelsCarryContext(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithProject(WithRequestID(context.Background(), "req-1"), "shop")

	tl.Trace(ctx, "trace message")
	tl.Debug(ctx, "debug message")
	tl.Info(ctx, "info message")
	tl.Warn(ctx, "warn message")
	tl.Error(ctx, "error message")

	entries := tl.All()
	require.Len(t, entries, 5)
	wantLevels := []zapcore.Level{TraceLevel, zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		assert.Equal(t, wantLevels[i], e.Level)
		assert.Equal(t, "shop", e.ContextMap()["compose.project"])
		assert.Equal(t, "req-1", e.ContextMap()["request.id"])
	}
}

func TestLogger_For(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithAction(WithProject(context.Background(), "shop"), "up")

	tl.For(ctx).Info("from zap", zap.Int("n", 1))
	tl.AssertField(t, "from zap", "compose.project", "shop")
	tl.AssertField(t, "from zap", "compose.action", "up")

	assert.Same(t, tl.Underlying(), tl.For(context.Background()))
}

func TestLogger_WithAndNamed(t *testing.T) {
	tl := NewTestLogger()

	child := tl.With(zap.String("component", "bundle")).Named("bundle")
	child.Info(context.Background(), "child message")

	tl.AssertField(t, "child message", "component", "bundle")
	assert.Equal(t, "bundle", tl.FilterMessage("child message").All()[0].LoggerName)
}

func TestEncodeLevel_Trace(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(newEncoder("json"), zapcore.AddSync(&buf), TraceLevel)
	zap.New(core).Log(TraceLevel, "deep")

	assert.Contains(t, buf.String(), `"level":"trace"`)
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]zapcore.Level{
		"trace": TraceLevel,
		"Debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		" warn": zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := LevelFromString(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := LevelFromString("verbose")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"bad format", func(c *Config) { c.Format = "text" }, true},
		{"no outputs", func(c *Config) { c.Output.Stdout = false }, true},
		{"zero tick", func(c *Config) { c.Sampling.Tick = 0 }, true},
		{"zero tick unsampled", func(c *Config) { c.Sampling.Enabled = false; c.Sampling.Tick = 0 }, false},
		{"negative caller skip", func(c *Config) { c.Caller.Skip = -1 }, true},
		{"bad pattern", func(c *Config) { c.Redaction.Patterns = []string{"("} }, true},
		{"empty field value", func(c *Config) { c.Fields["env"] = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
