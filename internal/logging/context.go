package logging

import (
	"context"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}
	if project := ProjectFromContext(ctx); project != "" {
		fields = append(fields, zap.String("compose.project", project))
	}
	if action := ActionFromContext(ctx); action != "" {
		fields = append(fields, zap.String("compose.action", action))
	}

	return fields
}

type requestCtxKey struct{}
type projectCtxKey struct{}
type actionCtxKey struct{}

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// validID reports whether id is safe to log verbatim. IDs arrive from
// clients (X-Request-ID) and project names from URLs.
func validID(id string) bool {
	return id != "" &&
		utf8.ValidString(id) &&
		len(id) <= maxIDLen &&
		idPattern.MatchString(id)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// WithRequestID adds a request ID to context. Invalid IDs are ignored.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if !validID(requestID) {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// ProjectFromContext extracts the compose project name from context.
func ProjectFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(projectCtxKey{}).(string); ok {
		return p
	}
	return ""
}

// WithProject adds a compose project name to context. Invalid names are
// ignored.
func WithProject(ctx context.Context, project string) context.Context {
	if !validID(project) {
		return ctx
	}
	return context.WithValue(ctx, projectCtxKey{}, project)
}

// ActionFromContext extracts the compose action from context.
func ActionFromContext(ctx context.Context) string {
	if a, ok := ctx.Value(actionCtxKey{}).(string); ok {
		return a
	}
	return ""
}

// WithAction adds a compose action to context. Invalid actions are ignored.
func WithAction(ctx context.Context, action string) context.Context {
	if !validID(action) {
		return ctx
	}
	return context.WithValue(ctx, actionCtxKey{}, action)
}

type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context, or a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
}
