package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/composed/internal/config"
)

func sampledLogger(levels map[zapcore.Level]LevelSamplingConfig) (*zap.Logger, *observer.ObservedLogs) {
	core, observed := observer.New(TraceLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels:  levels,
	})
	return zap.New(sampled), observed
}

func TestNewSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	assert.Equal(t, core, newSampledCore(core, SamplingConfig{Enabled: false}))
}

func TestNewSampledCore_ErrorsNeverSampled(t *testing.T) {
	logger, observed := sampledLogger(DefaultLevelSamplingConfig())

	for i := 0; i < 300; i++ {
		logger.Error("compose action failed")
	}
	assert.Len(t, observed.FilterMessage("compose action failed").All(), 300)
}

func TestNewSampledCore_PerLevelBudgets(t *testing.T) {
	logger, observed := sampledLogger(DefaultLevelSamplingConfig())

	for i := 0; i < 50; i++ {
		logger.Debug("debug line")
		logger.Log(TraceLevel, "trace line")
		logger.Info("info line")
	}

	assert.Len(t, observed.FilterMessage("debug line").All(), 10)
	assert.Len(t, observed.FilterMessage("trace line").All(), 1)
	assert.Len(t, observed.FilterMessage("info line").All(), 50)
}

func TestNewSampledCore_UnconfiguredLevelPasses(t *testing.T) {
	logger, observed := sampledLogger(map[zapcore.Level]LevelSamplingConfig{
		zapcore.InfoLevel: {Initial: 5, Thereafter: 0},
	})

	for i := 0; i < 10; i++ {
		logger.Warn("warn line")
		logger.Info("info line")
	}

	assert.Len(t, observed.FilterMessage("warn line").All(), 10)
	assert.Len(t, observed.FilterMessage("info line").All(), 5)
}

func TestLevelBandCore_WithKeepsBand(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	band := &levelBandCore{Core: core, min: zapcore.WarnLevel, max: zapcore.WarnLevel}
	logger := zap.New(band).With(zap.String("k", "v"))

	logger.Info("skipped")
	logger.Warn("kept")

	entries := observed.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
}
