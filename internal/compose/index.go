// Package compose discovers compose projects under a root directory and
// parses each compose file into a Project.
//
// The filesystem is the only source of truth: nothing is cached, and every
// query walks the root again.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/apperr"
	"github.com/fyrsmithlabs/composed/internal/sandbox"
)

var tracer = otel.Tracer("composed/compose")

// Skipped records a compose file left out of a scan.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ScanResult aggregates the outcomes of a scan.
type ScanResult struct {
	Projects []Project
	Skipped  []Skipped
}

// Index enumerates and parses compose projects.
type Index struct {
	root    string
	finder  Finder
	logger  *zap.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

// NewIndex creates an Index over root.
func NewIndex(root string, finder Finder, logger *zap.Logger) (*Index, error) {
	if root == "" {
		return nil, errors.New("compose root is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for compose index")
	}
	if finder == nil {
		finder = NewDirFinder()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving compose root: %w", err)
	}
	return &Index{
		root:    absRoot,
		finder:  finder,
		logger:  logger,
		tracer:  tracer,
		metrics: NewMetrics(),
	}, nil
}

// Root returns the absolute compose root.
func (i *Index) Root() string {
	return i.root
}

// ProjectDir resolves a project name to its directory under the root.
// Names that escape the root are an access-denied fault. A project is an
// immediate subdirectory, so nested names are invalid.
func (i *Index) ProjectDir(name string) (string, error) {
	if name == "" {
		return "", apperr.InvalidInput("project name cannot be empty")
	}
	dir, err := sandbox.Join(i.root, name)
	if err != nil {
		if errors.Is(err, sandbox.ErrEscapes) {
			return "", &apperr.Error{
				Kind:    apperr.KindAccessDenied,
				Message: fmt.Sprintf("%s is not in compose directory.", name),
				Err:     err,
			}
		}
		return "", apperr.Internal(err)
	}
	if dir == i.root {
		return "", apperr.InvalidInput("project name cannot be the compose root")
	}
	if filepath.Dir(dir) != i.root {
		return "", apperr.InvalidInput("Project name %s must be a single directory name.", name)
	}
	return dir, nil
}

// Scan parses every compose file under the root. Files that are empty or
// fail to parse are logged and reported in Skipped.
func (i *Index) Scan(ctx context.Context) (ScanResult, error) {
	ctx, span := i.tracer.Start(ctx, "Index.Scan")
	defer span.End()

	candidates, err := i.finder.FindAll(ctx, i.root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return ScanResult{}, apperr.Filesystem(err)
	}

	result := ScanResult{Projects: []Project{}}
	for _, c := range candidates {
		outcome := i.load(c)
		if !outcome.OK() {
			i.logger.Warn("skipping compose file",
				zap.String("path", outcome.Path),
				zap.Error(outcome.Err),
			)
			result.Skipped = append(result.Skipped, Skipped{Path: outcome.Path, Reason: outcome.Err.Error()})
			continue
		}
		result.Projects = append(result.Projects, *outcome.Project)
	}

	span.SetAttributes(
		attribute.Int("compose.projects", len(result.Projects)),
		attribute.Int("compose.skipped", len(result.Skipped)),
	)
	i.metrics.Projects.Set(float64(len(result.Projects)))
	i.metrics.Skipped.Set(float64(len(result.Skipped)))
	return result, nil
}

func (i *Index) load(c Candidate) ParseOutcome {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return ParseOutcome{Path: c.Path, Err: apperr.Filesystem(err)}
	}
	return Parse(c.Project, c.Path, data)
}

// List returns the projects found by Scan.
func (i *Index) List(ctx context.Context) ([]Project, error) {
	res, err := i.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return res.Projects, nil
}

// Locate returns the compose file path of a project.
func (i *Index) Locate(ctx context.Context, name string) (string, error) {
	dir, err := i.ProjectDir(name)
	if err != nil {
		return "", err
	}
	path, ok, err := i.finder.FindIn(ctx, dir)
	if err != nil {
		return "", apperr.Filesystem(err)
	}
	if !ok {
		return "", apperr.NotFound("Project %s not found", name)
	}
	return path, nil
}

// Get returns one project including its raw compose content.
func (i *Index) Get(ctx context.Context, name string) (*Project, error) {
	ctx, span := i.tracer.Start(ctx, "Index.Get", trace.WithAttributes(
		attribute.String("compose.project", name),
	))
	defer span.End()

	path, err := i.Locate(ctx, name)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("Project %s not found", name)
		}
		return nil, apperr.Filesystem(err)
	}

	outcome := Parse(name, path, data)
	if !outcome.OK() {
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, outcome.Err
	}

	project := outcome.Project
	project.Content = string(data)
	return project, nil
}
