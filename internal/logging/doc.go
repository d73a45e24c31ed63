// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Dual output (stdout + OpenTelemetry)
//   - Context field injection (trace_id, request.id, compose.project, compose.action)
//   - Secret redaction on field names and value patterns
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg, err := logging.FromSettings(appCfg.Logging, false)
//	logger, err := logging.NewLogger(cfg, nil)
//	defer logger.Sync()
//
//	ctx = logging.WithProject(ctx, "shop")
//	logger.Info(ctx, "action finished", zap.Duration("duration", d))
//
// Components that only need a *zap.Logger receive Underlying(), or For(ctx)
// when the request context should be baked in.
//
// # Sampling
//
// Each level below Error is sampled on its own budget:
//   - Trace: first 1 per tick, drop rest
//   - Debug: first 10 per tick, drop rest
//   - Info: first 100, then 1 every 10
//   - Warn: first 100, then 1 every 100
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
package logging
