package compose

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileNames lists the compose file names recognised in a project
// directory, in priority order.
var FileNames = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// DefaultFileName is used when a project directory has no compose file yet.
const DefaultFileName = "docker-compose.yml"

// Candidate is a compose file discovered under the root.
type Candidate struct {
	// Project is the name of the directory holding the file.
	Project string
	// Path is the absolute path of the compose file.
	Path string
}

// Finder locates compose files on disk.
type Finder interface {
	// FindAll returns one candidate per immediate subdirectory of root that
	// holds a compose file, ordered by project name.
	FindAll(ctx context.Context, root string) ([]Candidate, error)

	// FindIn returns the compose file inside dir. The boolean is false when
	// dir does not exist or holds no compose file.
	FindIn(ctx context.Context, dir string) (string, bool, error)
}

// DirFinder is the filesystem Finder.
type DirFinder struct{}

// NewDirFinder returns a Finder backed by os.ReadDir.
func NewDirFinder() *DirFinder {
	return &DirFinder{}
}

// FindAll implements Finder. A missing root yields no candidates.
func (DirFinder) FindAll(ctx context.Context, root string) ([]Candidate, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving compose root: %w", err)
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading compose root: %w", err)
	}

	var out []Candidate
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(absRoot, entry.Name())
		path, ok, err := findIn(dir)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Candidate{Project: entry.Name(), Path: path})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Project < out[j].Project })
	return out, nil
}

// FindIn implements Finder.
func (DirFinder) FindIn(ctx context.Context, dir string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("resolving project dir: %w", err)
	}
	return findIn(absDir)
}

func findIn(dir string) (string, bool, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		// Missing, unreadable, and not-a-directory all mean "no file here".
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			return path, true, nil
		}
	}
	return "", false, nil
}
