package http

import (
	"github.com/fyrsmithlabs/composed/internal/apperr"
	"github.com/fyrsmithlabs/composed/internal/telemetry"
)

// ComposeWriteRequest is the request body for POST /api/compose/.
//
// Content is a pointer so an absent or null content can be told apart from
// an empty string.
type ComposeWriteRequest struct {
	Name    string  `json:"name" validate:"required,max=255,printable"`
	Content *string `json:"content"`
}

// FileWriteRequest is the request body for POST /api/compose/:project/writefile.
type FileWriteRequest struct {
	Name    string  `json:"name" validate:"required,max=4096,printable"`
	Content *string `json:"content"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail   string           `json:"detail"`
	Location *apperr.Location `json:"location,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version,omitempty"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}
