package project

import (
	"errors"
)

// ErrEmptyFileName indicates a file operation without a file name.
var ErrEmptyFileName = errors.New("file name cannot be empty")

// Messages surfaced to API clients.
const (
	msgComposeEmpty      = "Compose file cannot be empty."
	msgDirectoryNotFound = "Project directory not found."
	msgComposeNotFound   = "Project docker-compose.yml not found."
)

// File is one file inside a project directory.
type File struct {
	// Project is the name of the owning project.
	Project string `json:"project"`

	// Name is the file path relative to the project directory, as requested.
	Name string `json:"name"`

	// Content is the full text of the file.
	Content string `json:"content"`
}
