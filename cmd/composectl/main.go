// Package main implements composectl, a command-line client for the
// composed HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/composed/internal/bundle"
	"github.com/fyrsmithlabs/composed/internal/compose"
	"github.com/fyrsmithlabs/composed/internal/project"
)

// version information
var version = "dev"

// defaultServer can be overridden with COMPOSED_SERVER.
const defaultServer = "http://localhost:8000"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	server  string
	timeout time.Duration
}

func (o *options) client() *client {
	return newClient(strings.TrimRight(o.server, "/"), o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "composectl",
		Short: "CLI for the composed compose management API",
		Long: `composectl is a command-line interface for a running composed server.
It lists and edits compose projects, runs compose actions, and downloads
support bundles.`,
		Version:      version,
		SilenceUsage: true,
	}

	server := defaultServer
	if env := os.Getenv("COMPOSED_SERVER"); env != "" {
		server = env
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "composed server URL")
	// Actions block until compose finishes, so the default is generous.
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "request timeout")

	root.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newWriteCmd(opts),
		newReadCmd(opts),
		newDeleteCmd(opts),
		newActionCmd(opts),
		newBundleCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List compose projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var projects []compose.Project
			if err := opts.client().doJSON(cmd.Context(), http.MethodGet, apiPath(), nil, &projects); err != nil {
				return err
			}
			printProjects(cmd.OutOrStdout(), projects)
			return nil
		},
	}
}

func printProjects(w io.Writer, projects []compose.Project) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tSERVICES\tPATH")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Version, strings.Join(p.Services.Names(), ","), p.Path)
	}
	_ = tw.Flush()
}

func newGetCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <project>",
		Short: "Show a project's compose file",
		Long: `Print the compose file of a project.

Examples:
  # Print the compose file
  composectl get shop

  # Print the parsed project as JSON
  composectl get shop --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p compose.Project
			if err := opts.client().doJSON(cmd.Context(), http.MethodGet, apiPath(args[0]), nil, &p); err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			fmt.Fprint(cmd.OutOrStdout(), p.Content)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed project as JSON")
	return cmd
}

// readInput reads a file argument, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	return string(data), nil
}

func newWriteCmd(opts *options) *cobra.Command {
	var fileName string
	cmd := &cobra.Command{
		Use:   "write <project> [source|-]",
		Short: "Write a project's compose file or another project file",
		Long: `Write content from a local file or stdin into a project.

Without --file the content replaces the project's compose file, creating
the project when it does not exist. With --file it is written to that path
inside the project directory.

Examples:
  # Create or replace a compose file
  composectl write shop docker-compose.yml

  # Write an env file from stdin
  echo "TAG=1.2" | composectl write shop --file .env`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}
			c := opts.client()

			if fileName == "" {
				var p compose.Project
				body := map[string]any{"name": args[0], "content": content}
				if err := c.doJSON(cmd.Context(), http.MethodPost, apiPath(), body, &p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d services)\n", p.Path, len(p.Services))
				return nil
			}

			var f project.File
			body := map[string]any{"name": fileName, "content": content}
			if err := c.doJSON(cmd.Context(), http.MethodPost, apiPath(args[0], "writefile"), body, &f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s/%s (%d bytes)\n", f.Project, f.Name, len(f.Content))
			return nil
		},
	}
	cmd.Flags().StringVar(&fileName, "file", "", "project file to write instead of the compose file")
	return cmd
}

func newReadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "read <project> <file>",
		Short: "Print a file from a project directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f project.File
			if err := opts.client().doJSON(cmd.Context(), http.MethodGet, apiPath(args[0], "readfile", args[1]), nil, &f); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), f.Content)
			return nil
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var projects []compose.Project
			if err := opts.client().doJSON(cmd.Context(), http.MethodDelete, apiPath(args[0]), nil, &projects); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			printProjects(cmd.OutOrStdout(), projects)
			return nil
		},
	}
}

func newActionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "action <project> <action> [service]",
		Short: "Run a compose action on a project or one service",
		Long: `Run a compose action and wait for it to finish.

up runs detached and create only creates containers. Scoped to a service,
build pulls newer base images and rm stops the container first. Other
actions are passed to compose unchanged.

Examples:
  composectl action shop up
  composectl action shop build web
  composectl action shop restart db`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var projects []compose.Project
			if err := opts.client().doJSON(cmd.Context(), http.MethodPost, apiPath(append([]string{args[0], "actions"}, args[1:]...)...), nil, &projects); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s completed\n", args[0], strings.Join(args[1:], " "))
			return nil
		},
	}
}

func newBundleCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "bundle <project>",
		Short: "Download a project's support bundle",
		Long: `Download a zip holding every service's container log and the
compose file. The file is saved as <project>_bundle.zip unless -o is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, header, err := opts.client().do(cmd.Context(), http.MethodGet, apiPath(args[0], "support"), nil)
			if err != nil {
				return err
			}
			dest := output
			if dest == "" {
				dest = attachmentName(header.Get("Content-Disposition"), bundle.FileName(args[0]))
			}
			if err := os.WriteFile(dest, data, 0o600); err != nil {
				return fmt.Errorf("failed to write bundle: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", dest, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path")
	return cmd
}

// attachmentName extracts the file name from a Content-Disposition header.
// Only the base name is kept so a server cannot choose the directory.
func attachmentName(disposition, fallback string) string {
	_, name, ok := strings.Cut(disposition, "filename=")
	if !ok {
		return fallback
	}
	name = filepath.Base(strings.Trim(strings.TrimSpace(name), `"`))
	if name == "." || name == "/" || name == "" {
		return fallback
	}
	return name
}

// HealthResponse matches internal/http HealthResponse.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Telemetry *struct {
		Healthy  bool `json:"healthy"`
		Degraded bool `json:"degraded"`
	} `json:"telemetry,omitempty"`
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check composed server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			var h HealthResponse
			if err := opts.client().doJSON(ctx, http.MethodGet, "/health", nil, &h); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server Status: %s\n", h.Status)
			fmt.Fprintf(out, "Server URL: %s\n", opts.server)
			if h.Version != "" {
				fmt.Fprintf(out, "Version: %s\n", h.Version)
			}
			if h.Telemetry != nil {
				fmt.Fprintf(out, "Telemetry: healthy=%t degraded=%t\n", h.Telemetry.Healthy, h.Telemetry.Degraded)
			}
			return nil
		},
	}
}
