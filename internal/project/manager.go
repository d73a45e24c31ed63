package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/apperr"
	"github.com/fyrsmithlabs/composed/internal/compose"
	"github.com/fyrsmithlabs/composed/internal/sandbox"
)

// Index is the part of compose.Index the store depends on.
type Index interface {
	ProjectDir(name string) (string, error)
	Locate(ctx context.Context, name string) (string, error)
	Get(ctx context.Context, name string) (*compose.Project, error)
	List(ctx context.Context) ([]compose.Project, error)
}

// Manager provides file operations on compose projects.
type Manager interface {
	// ReadFile returns the content of name inside the project directory.
	ReadFile(ctx context.Context, project, name string) (*File, error)

	// WriteFile overwrites name inside the project directory and reads it
	// back. A nil content writes an empty file.
	WriteFile(ctx context.Context, project, name string, content *string) (*File, error)

	// WriteCompose writes the compose file of a project, creating the
	// project directory when needed, and returns the refreshed project.
	WriteCompose(ctx context.Context, name string, content *string) (*compose.Project, error)

	// Delete removes a project directory tree and returns the remaining
	// projects.
	Delete(ctx context.Context, name string) ([]compose.Project, error)
}

// manager implements Manager on the local filesystem.
type manager struct {
	index  Index
	logger *zap.Logger
}

// NewManager creates a filesystem-backed project manager.
func NewManager(index Index, logger *zap.Logger) (Manager, error) {
	if index == nil {
		return nil, errors.New("compose index is required for project manager")
	}
	if logger == nil {
		return nil, errors.New("logger is required for project manager")
	}
	return &manager{index: index, logger: logger}, nil
}

// resolve returns the project directory and the sandboxed absolute path
// of name inside it.
func (m *manager) resolve(project, name string) (string, string, error) {
	if name == "" {
		return "", "", &apperr.Error{Kind: apperr.KindInvalidInput, Message: ErrEmptyFileName.Error(), Err: ErrEmptyFileName}
	}
	dir, err := m.index.ProjectDir(project)
	if err != nil {
		return "", "", err
	}
	res, err := sandbox.Check(dir, name)
	if err != nil {
		return "", "", apperr.Internal(err)
	}
	if !res.Safe {
		m.logger.Warn("rejected path outside project directory",
			zap.String("project", project),
			zap.String("file", name),
			zap.String("resolved", res.Path),
		)
		return "", "", apperr.AccessDenied("%s is not in project directory.", name)
	}
	return dir, res.Path, nil
}

// ReadFile implements Manager.
func (m *manager) ReadFile(ctx context.Context, project, name string) (*File, error) {
	_, path, err := m.resolve(project, name)
	if err != nil {
		return nil, err
	}
	return m.read(project, name, path)
}

func (m *manager) read(project, name, path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.Error{
				Kind:    apperr.KindNotFound,
				Message: fmt.Sprintf("%s not found.", name),
				Err:     err,
			}
		}
		return nil, apperr.Filesystem(err)
	}
	return &File{Project: project, Name: name, Content: string(data)}, nil
}

// WriteFile implements Manager.
func (m *manager) WriteFile(ctx context.Context, project, name string, content *string) (*File, error) {
	dir, path, err := m.resolve(project, name)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("Project %s not found", project)
		}
		return nil, apperr.Filesystem(err)
	}

	var data []byte
	if content != nil {
		data = []byte(*content)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, apperr.Filesystem(err)
	}

	m.logger.Info("project file written",
		zap.String("project", project),
		zap.String("file", name),
		zap.Int("bytes", len(data)),
	)
	return m.read(project, name, path)
}

// WriteCompose implements Manager.
func (m *manager) WriteCompose(ctx context.Context, name string, content *string) (*compose.Project, error) {
	dir, err := m.index.ProjectDir(name)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, apperr.InvalidInput(msgComposeEmpty)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Filesystem(err)
	}

	path, err := m.composePath(ctx, name, dir)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(*content), 0o644); err != nil {
		return nil, apperr.Filesystem(err)
	}

	m.logger.Info("compose file written",
		zap.String("project", name),
		zap.String("path", path),
	)
	return m.index.Get(ctx, name)
}

// composePath returns the existing compose file of the project, or the
// default file name inside dir when there is none.
func (m *manager) composePath(ctx context.Context, name, dir string) (string, error) {
	path, err := m.index.Locate(ctx, name)
	if err == nil {
		return path, nil
	}
	if apperr.Is(err, apperr.KindNotFound) {
		return filepath.Join(dir, compose.DefaultFileName), nil
	}
	return "", err
}

// Delete implements Manager.
func (m *manager) Delete(ctx context.Context, name string) ([]compose.Project, error) {
	dir, err := m.index.ProjectDir(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, apperr.NotFound(msgDirectoryNotFound)
	}

	path, err := m.composePath(ctx, name, dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, apperr.NotFound(msgComposeNotFound)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Filesystem(err)
	}
	_ = f.Close()

	if err := os.RemoveAll(dir); err != nil {
		return nil, apperr.Filesystem(err)
	}

	m.logger.Info("project deleted", zap.String("project", name), zap.String("dir", dir))
	return m.index.List(ctx)
}
