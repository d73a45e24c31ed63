// Package runtime reads container state from the Docker daemon through the
// docker command-line client.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/process"
)

// ErrContainerNotFound indicates the daemon has no container by that name.
var ErrContainerNotFound = errors.New("container not found")

// DefaultCommand is the docker client invoked when none is configured.
var DefaultCommand = []string{"docker"}

// ContainerRuntime fetches container logs.
type ContainerRuntime interface {
	// Exists reports whether a container with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Logs returns the combined stdout and stderr log of a container.
	// It returns ErrContainerNotFound when the container does not exist.
	Logs(ctx context.Context, name string) ([]byte, error)
}

// DockerCLI implements ContainerRuntime with the docker client binary.
type DockerCLI struct {
	runner  process.Runner
	command []string
	logger  *zap.Logger
}

// NewDockerCLI creates a DockerCLI. An empty command uses DefaultCommand.
func NewDockerCLI(runner process.Runner, command []string, logger *zap.Logger) (*DockerCLI, error) {
	if runner == nil {
		return nil, errors.New("process runner is required for docker runtime")
	}
	if logger == nil {
		return nil, errors.New("logger is required for docker runtime")
	}
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &DockerCLI{runner: runner, command: command, logger: logger}, nil
}

// args prefixes rest with the configured command arguments. Callers put
// "--" before container names, which come from compose files and may
// start with a dash.
func (d *DockerCLI) args(rest ...string) []string {
	return append(append([]string{}, d.command[1:]...), rest...)
}

// Exists implements ContainerRuntime.
func (d *DockerCLI) Exists(ctx context.Context, name string) (bool, error) {
	_, stderr, exitCode, err := d.runner.RunInDir(ctx, "", nil, d.command[0],
		d.args("container", "inspect", "--format", "{{.Id}}", "--", name)...)
	if err == nil {
		return true, nil
	}
	if exitCode > 0 && isNoSuchContainer(stderr) {
		return false, nil
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return false, fmt.Errorf("inspecting container %s: %s: %w", name, msg, err)
	}
	return false, fmt.Errorf("inspecting container %s: %w", name, err)
}

// Logs implements ContainerRuntime.
func (d *DockerCLI) Logs(ctx context.Context, name string) ([]byte, error) {
	ok, err := d.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
	}

	out, exitCode, err := d.runner.RunCombined(ctx, d.command[0], d.args("logs", "--", name)...)
	if err != nil {
		// The container can vanish between inspect and logs.
		if exitCode > 0 && isNoSuchContainer(string(out)) {
			return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
		}
		return nil, fmt.Errorf("reading logs of %s: %w", name, err)
	}

	d.logger.Debug("container logs fetched", zap.String("container", name), zap.Int("bytes", len(out)))
	return out, nil
}

func isNoSuchContainer(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "no such container") || strings.Contains(lower, "no such object")
}

var _ ContainerRuntime = (*DockerCLI)(nil)
