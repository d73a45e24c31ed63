package action

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/apperr"
	"github.com/fyrsmithlabs/composed/internal/compose"
	"github.com/fyrsmithlabs/composed/internal/process"
)

var tracer = otel.Tracer("composed/action")

// NoOutput is logged when the compose tool printed nothing.
const NoOutput = "No Output"

// DefaultCommand is the compose tool invoked when none is configured.
var DefaultCommand = []string{"docker-compose"}

// Index is the part of compose.Index the executor depends on.
type Index interface {
	Locate(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]compose.Project, error)
}

// Config controls how the compose tool is invoked.
type Config struct {
	// Command is the compose tool and any leading arguments, for example
	// ["docker", "compose"].
	Command []string

	// PassEnv lists variables forwarded in addition to PATH, HOME and
	// DOCKER_HOST. Nothing else reaches the compose tool.
	PassEnv []string
}

// Executor runs compose actions.
type Executor struct {
	index   Index
	runner  process.Runner
	command []string
	passEnv []string
	environ func() []string
	logger  *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewExecutor creates an Executor.
func NewExecutor(index Index, runner process.Runner, cfg Config, logger *zap.Logger) (*Executor, error) {
	if index == nil {
		return nil, errors.New("compose index is required for action executor")
	}
	if runner == nil {
		return nil, errors.New("process runner is required for action executor")
	}
	if logger == nil {
		return nil, errors.New("logger is required for action executor")
	}
	command := cfg.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Executor{
		index:   index,
		runner:  runner,
		command: command,
		passEnv: cfg.PassEnv,
		environ: os.Environ,
		logger:  logger,
		metrics: NewMetrics(),
		tracer:  tracer,
	}, nil
}

// Run executes the action in the project's directory and returns the
// refreshed project list.
//
// The run is not bound to ctx cancellation: a compose action runs to
// completion even if the caller goes away.
func (e *Executor) Run(ctx context.Context, projectName string, a Action) ([]compose.Project, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := e.tracer.Start(ctx, "Executor.Run", trace.WithAttributes(
		attribute.String("compose.project", projectName),
		attribute.String("compose.action", a.Verb),
		attribute.String("compose.service", a.Service),
		attribute.String("compose.kind", a.Kind().String()),
	))
	defer span.End()

	path, err := e.index.Locate(ctx, projectName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	dir := filepath.Dir(path)

	argv := append(append([]string{}, e.command[1:]...), a.Args()...)
	e.logger.Debug("running compose action",
		zap.String("project", projectName),
		zap.String("dir", dir),
		zap.String("command", e.command[0]),
		zap.Strings("args", argv),
	)

	start := time.Now()
	stdout, stderr, exitCode, runErr := e.runner.RunInDir(
		ctx,
		dir,
		buildEnvironment(e.environ(), e.passEnv),
		e.command[0],
		argv...,
	)
	e.metrics.ActionDuration.WithLabelValues(a.Verb).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("process.exit_code", exitCode))

	if runErr != nil {
		e.metrics.ActionsTotal.WithLabelValues(a.Verb, "failure").Inc()
		fault := toolFailure(stderr, runErr)
		span.RecordError(fault)
		span.SetStatus(codes.Error, "compose action failed")
		e.logger.Warn("compose action failed",
			zap.String("project", projectName),
			zap.Stringer("action", a),
			zap.Int("exit_code", exitCode),
			zap.String("detail", fault.Message),
		)
		return nil, fault
	}

	e.metrics.ActionsTotal.WithLabelValues(a.Verb, "success").Inc()
	e.logger.Info("compose action succeeded",
		zap.String("project", projectName),
		zap.Stringer("action", a),
		zap.String("output", outputOf(stdout, stderr)),
	)
	return e.index.List(ctx)
}

func toolFailure(stderr string, err error) *apperr.Error {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return apperr.ExternalTool(msg, err)
	}
	return apperr.ExternalTool(fmt.Sprintf("compose command failed: %v", err), err)
}

// outputOf picks what to report for a successful run: stdout, else
// stderr, else NoOutput.
func outputOf(stdout, stderr string) string {
	if out := strings.TrimSpace(stdout); out != "" {
		return out
	}
	if out := strings.TrimSpace(stderr); out != "" {
		return out
	}
	return NoOutput
}
