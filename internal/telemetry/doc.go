// Package telemetry provides OpenTelemetry instrumentation for composed.
//
// Traces and metrics are exported over OTLP (gRPC or HTTP/protobuf) to a
// collector. Components create spans through the global tracer provider,
// which New installs, so compose actions and bundle builds are traced
// without holding a Telemetry reference.
//
// # Usage
//
//	cfg := telemetry.FromSettings(appCfg.Observability, version)
//	tel, err := telemetry.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
// # Error Handling
//
// Exporter setup failures do not stop the server. The instance is marked
// degraded, the failure is logged and no-op providers stay in place.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "Executor.Run")
//	span.End()
//	tt.AssertSpanExists(t, "Executor.Run")
package telemetry
