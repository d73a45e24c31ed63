// Package sandbox decides whether a requested path stays inside a base
// directory.
//
// The check is purely lexical: relative targets resolve against the base,
// "." and ".." segments are collapsed, and symlinks are not followed. No
// filesystem access happens here.
package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyBase indicates the base directory was not provided.
	ErrEmptyBase = errors.New("base directory cannot be empty")

	// ErrEmptyTarget indicates the target path was not provided.
	ErrEmptyTarget = errors.New("target path cannot be empty")
)

// Result is the outcome of a sandbox check.
type Result struct {
	// Safe is true when Path equals the base or is a descendant of it.
	Safe bool
	// Path is the canonical absolute form of the target.
	Path string
}

// Check canonicalizes target against base and reports whether it stays
// inside base. Containment is by path component, so /srv/app does not
// contain /srv/app2.
func Check(base, target string) (Result, error) {
	if base == "" {
		return Result{}, ErrEmptyBase
	}
	if target == "" {
		return Result{}, ErrEmptyTarget
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return Result{}, fmt.Errorf("resolving base %q: %w", base, err)
	}

	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absBase, resolved)
	}
	resolved = filepath.Clean(resolved)

	return Result{Safe: Contains(absBase, resolved), Path: resolved}, nil
}

// Contains reports whether the cleaned absolute path p is base or lies
// below it.
func Contains(base, p string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Join resolves name under base and fails with ErrEscapes when it leaves
// the sandbox.
func Join(base, name string) (string, error) {
	res, err := Check(base, name)
	if err != nil {
		return "", err
	}
	if !res.Safe {
		return "", fmt.Errorf("%w: %s", ErrEscapes, name)
	}
	return res.Path, nil
}

// ErrEscapes is returned by Join when the name resolves outside the base.
var ErrEscapes = errors.New("path escapes base directory")
