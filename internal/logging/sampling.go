package logging

import (
	"sort"

	"go.uber.org/zap/zapcore"
)

// newSampledCore wraps core with level-aware sampling. Each configured level
// gets its own sampler. Error and above, and any level without a budget,
// pass through unsampled.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	levels := make([]zapcore.Level, 0, len(cfg.Levels))
	for lvl := range cfg.Levels {
		if lvl < zapcore.ErrorLevel {
			levels = append(levels, lvl)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	sampled := make(map[zapcore.Level]bool, len(levels))
	for _, lvl := range levels {
		sampled[lvl] = true
	}

	cores := make([]zapcore.Core, 0, len(levels)+1)
	cores = append(cores, &unsampledCore{Core: core, sampled: sampled})

	for _, lvl := range levels {
		rate := cfg.Levels[lvl]
		cores = append(cores, zapcore.NewSamplerWithOptions(
			&levelBandCore{Core: core, min: lvl, max: lvl},
			cfg.Tick.Duration(),
			rate.Initial,
			rate.Thereafter,
		))
	}

	return zapcore.NewTee(cores...)
}

// levelBandCore passes only entries with min <= level <= max.
type levelBandCore struct {
	zapcore.Core
	min, max zapcore.Level
}

func (c *levelBandCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && lvl <= c.max && c.Core.Enabled(lvl)
}

func (c *levelBandCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *levelBandCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelBandCore{
		Core: c.Core.With(fields),
		min:  c.min,
		max:  c.max,
	}
}

// unsampledCore passes the levels that have no sampler.
type unsampledCore struct {
	zapcore.Core
	sampled map[zapcore.Level]bool
}

func (c *unsampledCore) Enabled(lvl zapcore.Level) bool {
	return !c.sampled[lvl] && c.Core.Enabled(lvl)
}

func (c *unsampledCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *unsampledCore) With(fields []zapcore.Field) zapcore.Core {
	return &unsampledCore{Core: c.Core.With(fields), sampled: c.sampled}
}
