package http

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/action"
	"github.com/fyrsmithlabs/composed/internal/apperr"
	"github.com/fyrsmithlabs/composed/internal/bundle"
)

// handleHealth reports liveness, with telemetry health when configured.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.deps.Version}
	if s.deps.Telemetry != nil {
		h := s.deps.Telemetry.Health()
		resp.Telemetry = &h
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.deps.Projects.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleGetProject(c echo.Context) error {
	name, err := pathParam(c, "project")
	if err != nil {
		return err
	}
	p, err := s.deps.Projects.Get(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleWriteCompose(c echo.Context) error {
	var req ComposeWriteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := s.deps.Files.WriteCompose(c.Request().Context(), req.Name, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	name, err := pathParam(c, "project")
	if err != nil {
		return err
	}
	projects, err := s.deps.Files.Delete(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleReadFile(c echo.Context) error {
	name, err := pathParam(c, "project")
	if err != nil {
		return err
	}
	file, err := pathParam(c, "file")
	if err != nil {
		return err
	}
	f, err := s.deps.Files.ReadFile(c.Request().Context(), name, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

func (s *Server) handleWriteFile(c echo.Context) error {
	name, err := pathParam(c, "project")
	if err != nil {
		return err
	}
	var req FileWriteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	f, err := s.deps.Files.WriteFile(c.Request().Context(), name, req.Name, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

// handleAction serves both the project-level and the service-level action
// routes; the service parameter is empty on the former.
func (s *Server) handleAction(c echo.Context) error {
	name, err := pathParam(c, "project")
	if err != nil {
		return err
	}
	verb, err := pathParam(c, "action")
	if err != nil {
		return err
	}
	service, err := pathParam(c, "service")
	if err != nil {
		return err
	}

	a, err := action.New(verb, service)
	if err != nil {
		return &apperr.Error{Kind: apperr.KindInvalidInput, Message: err.Error(), Err: err}
	}

	projects, err := s.deps.Actions.Run(c.Request().Context(), name, a)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleSupportBundle(c echo.Context) error {
	name, err := pathParam(c, "project")
	if err != nil {
		return err
	}
	b, err := s.deps.Bundles.Build(c.Request().Context(), name)
	if err != nil {
		return err
	}
	s.logger.Debug("sending support bundle",
		zap.String("project", name),
		zap.Int("bytes", len(b.Data)),
	)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment;filename="+b.Name)
	return c.Blob(http.StatusOK, bundle.ContentType, b.Data)
}

// pathParam returns a decoded route parameter. Echo routes on the raw path
// when the request carries escapes the default encoding would not produce
// (such as %2F), leaving those parameters encoded.
func pathParam(c echo.Context, name string) (string, error) {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v, nil
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return "", apperr.InvalidInput("malformed %s in path", name)
	}
	return decoded, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	return c.Validate(req)
}
