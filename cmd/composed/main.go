// Composed serves the compose management API.
//
// It manages the Docker Compose projects found under a compose root: every
// immediate subdirectory holding a compose file is a project. The API lists
// and edits projects, runs compose actions, and builds support bundles.
//
// Configuration is read from ~/.config/composed/config.yaml (or -config)
// and COMPOSED_* environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	composed
//
//	# Serve /srv/compose on port 9000
//	COMPOSE_DIR=/srv/compose COMPOSED_SERVER_HTTP_PORT=9000 composed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/action"
	"github.com/fyrsmithlabs/composed/internal/bundle"
	"github.com/fyrsmithlabs/composed/internal/compose"
	"github.com/fyrsmithlabs/composed/internal/config"
	httpserver "github.com/fyrsmithlabs/composed/internal/http"
	"github.com/fyrsmithlabs/composed/internal/logging"
	"github.com/fyrsmithlabs/composed/internal/process"
	"github.com/fyrsmithlabs/composed/internal/project"
	"github.com/fyrsmithlabs/composed/internal/runtime"
	"github.com/fyrsmithlabs/composed/internal/secrets"
	"github.com/fyrsmithlabs/composed/internal/telemetry"
	"github.com/fyrsmithlabs/composed/internal/watch"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/composed/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  composed [-config path]   Start the compose API server\n")
			fmt.Fprintf(os.Stderr, "  composed version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWithFile(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("composed by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires every component and serves until ctx is cancelled:
//  1. Telemetry and the structured logger
//  2. Compose index, file manager, action executor
//  3. Container runtime, scrubber, bundle builder
//  4. Compose-root watcher (when enabled)
//  5. HTTP server, shut down gracefully on cancellation
func run(ctx context.Context, cfg *config.Config) error {
	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Observability, version), nil)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logCfg, err := logging.FromSettings(cfg.Logging, tel.IsEnabled())
	if err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	appLogger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()
	logger := appLogger.Underlying()

	logger.Info("Starting composed",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("compose_root", cfg.Compose.Root),
		zap.Bool("telemetry", tel.IsEnabled()),
	)

	server, watcher, err := wire(ctx, cfg, tel, logger)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer watcher.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// wire builds the component graph behind the HTTP server.
func wire(ctx context.Context, cfg *config.Config, tel *telemetry.Telemetry, logger *zap.Logger) (*httpserver.Server, *watch.Watcher, error) {
	idx, err := compose.NewIndex(cfg.Compose.Root, nil, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create compose index: %w", err)
	}
	files, err := project.NewManager(idx, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create project manager: %w", err)
	}

	runner := process.NewExecRunner()
	executor, err := action.NewExecutor(idx, runner, action.Config{
		Command: cfg.Compose.CommandArgs(),
		PassEnv: cfg.Compose.PassEnv,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create action executor: %w", err)
	}

	rt, err := runtime.NewDockerCLI(runner, cfg.Docker.CommandArgs(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create container runtime: %w", err)
	}
	scrubber, err := secrets.New(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create secrets scrubber: %w", err)
	}
	builder, err := bundle.NewBuilder(idx, rt, scrubber, bundle.Config{
		ScrubLogs:   cfg.Bundle.ScrubLogs,
		MaxParallel: cfg.Bundle.MaxParallel,
		HyphenNames: cfg.Bundle.HyphenNames,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bundle builder: %w", err)
	}

	var watcher *watch.Watcher
	if cfg.Watch.Enabled {
		watcher, err = watch.New(idx, cfg.Watch.Debounce.Duration(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		// The API works without the watcher; a missing root only loses
		// change notifications.
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("compose root watcher disabled", zap.Error(err))
			watcher.Stop()
			watcher = nil
		}
	}

	server, err := httpserver.NewServer(httpserver.Deps{
		Projects:  idx,
		Files:     files,
		Actions:   executor,
		Bundles:   builder,
		Telemetry: tel,
		Version:   version,
	}, logger, &httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		if watcher != nil {
			watcher.Stop()
		}
		return nil, nil, fmt.Errorf("failed to create http server: %w", err)
	}
	return server, watcher, nil
}
