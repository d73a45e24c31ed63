// Package bundle assembles support bundles: a zip holding the log of every
// service container in a project plus the project's compose file.
//
// All logs are fetched before the archive is written, so a missing
// container fails the build without producing partial output.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/composed/internal/apperr"
	"github.com/fyrsmithlabs/composed/internal/compose"
	"github.com/fyrsmithlabs/composed/internal/runtime"
	"github.com/fyrsmithlabs/composed/internal/secrets"
)

var tracer = otel.Tracer("composed/bundle")

// ContentType is the media type of a bundle download.
const ContentType = "application/x-zip-compressed"

// DefaultMaxParallel bounds concurrent log fetches when unset.
const DefaultMaxParallel = 4

// Source looks up a project with its raw compose content.
type Source interface {
	Get(ctx context.Context, name string) (*compose.Project, error)
}

// Config controls bundle assembly.
type Config struct {
	// ScrubLogs passes every log through the secrets scrubber.
	ScrubLogs bool

	// MaxParallel bounds concurrent log fetches.
	MaxParallel int

	// HyphenNames also tries compose v2 container names.
	HyphenNames bool
}

// Bundle is a finished archive.
type Bundle struct {
	// Name is the download file name, <project>_bundle.zip.
	Name string
	Data []byte
}

// Builder assembles bundles.
type Builder struct {
	source   Source
	runtime  runtime.ContainerRuntime
	scrubber secrets.Scrubber
	cfg      Config
	logger   *zap.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// NewBuilder creates a Builder. A nil scrubber disables scrubbing.
func NewBuilder(source Source, rt runtime.ContainerRuntime, scrubber secrets.Scrubber, cfg Config, logger *zap.Logger) (*Builder, error) {
	if source == nil {
		return nil, errors.New("project source is required for bundle builder")
	}
	if rt == nil {
		return nil, errors.New("container runtime is required for bundle builder")
	}
	if logger == nil {
		return nil, errors.New("logger is required for bundle builder")
	}
	if scrubber == nil {
		scrubber = secrets.NoopScrubber{}
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	return &Builder{
		source:   source,
		runtime:  rt,
		scrubber: scrubber,
		cfg:      cfg,
		logger:   logger,
		metrics:  NewMetrics(),
		tracer:   tracer,
		now:      time.Now,
	}, nil
}

// FileName returns the download name for a project's bundle.
func FileName(projectName string) string {
	return projectName + "_bundle.zip"
}

// Build collects the logs of every service in projectName and packs them
// with the compose file.
func (b *Builder) Build(ctx context.Context, projectName string) (*Bundle, error) {
	ctx, span := b.tracer.Start(ctx, "Builder.Build", trace.WithAttributes(
		attribute.String("compose.project", projectName),
	))
	defer span.End()

	bundle, err := b.build(ctx, projectName)
	if err != nil {
		b.metrics.BundlesTotal.WithLabelValues("failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "bundle failed")
		return nil, err
	}

	b.metrics.BundlesTotal.WithLabelValues("success").Inc()
	b.metrics.BundleSize.Observe(float64(len(bundle.Data)))
	span.SetAttributes(attribute.Int("bundle.bytes", len(bundle.Data)))
	b.logger.Info("support bundle built",
		zap.String("project", projectName),
		zap.Int("bytes", len(bundle.Data)),
	)
	return bundle, nil
}

func (b *Builder) build(ctx context.Context, projectName string) (*Bundle, error) {
	project, err := b.source.Get(ctx, projectName)
	if err != nil {
		return nil, err
	}

	logs, err := b.fetchLogs(ctx, project)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(logs)+1)
	for i, svc := range project.Services {
		entries = append(entries, entry{name: svc.Name + ".log", data: logs[i]})
	}
	entries = append(entries, entry{name: ComposeEntryName, data: []byte(project.Content)})

	data, err := writeArchive(entries, b.now())
	if errors.Is(err, ErrUnsafeEntryName) {
		return nil, &apperr.Error{Kind: apperr.KindInvalidInput, Message: err.Error(), Err: err}
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Bundle{Name: FileName(projectName), Data: data}, nil
}

// fetchLogs returns one log per service, in document order.
func (b *Builder) fetchLogs(ctx context.Context, project *compose.Project) ([][]byte, error) {
	services := project.Services
	logs := make([][]byte, len(services))
	missing := make([]bool, len(services))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.MaxParallel)

	for i, svc := range services {
		candidates := containerCandidates(project.Name, svc, len(services), b.cfg.HyphenNames)
		g.Go(func() error {
			data, found, err := b.firstLogs(gctx, candidates)
			if err != nil {
				return fmt.Errorf("fetching logs for %s: %w", svc.Name, err)
			}
			if !found {
				missing[i] = true
				return nil
			}
			logs[i] = b.scrub(project.Name, svc.Name, data)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperr.ExternalTool(err.Error(), err)
	}
	for i, svc := range services {
		if missing[i] {
			return nil, apperr.NotFound("container %s not found", svc.Name)
		}
	}
	return logs, nil
}

// firstLogs returns the logs of the first candidate container that exists.
func (b *Builder) firstLogs(ctx context.Context, candidates []string) ([]byte, bool, error) {
	for _, name := range candidates {
		data, err := b.runtime.Logs(ctx, name)
		if err == nil {
			return data, true, nil
		}
		if !errors.Is(err, runtime.ErrContainerNotFound) {
			return nil, false, err
		}
		b.logger.Debug("container candidate not found", zap.String("container", name))
	}
	return nil, false, nil
}

func (b *Builder) scrub(projectName, service string, data []byte) []byte {
	if !b.cfg.ScrubLogs || !b.scrubber.IsEnabled() {
		return data
	}
	res := b.scrubber.Scrub(data)
	if total := res.Total(); total > 0 {
		for rule, n := range res.ByRule {
			b.metrics.RedactionsTotal.WithLabelValues(rule).Add(float64(n))
		}
		b.logger.Info("redacted secrets from container log",
			zap.String("project", projectName),
			zap.String("service", service),
			zap.Int("redactions", total),
		)
	}
	return res.Scrubbed
}
