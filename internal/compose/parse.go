package compose

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/composed/internal/apperr"
)

// ErrEmptyDocument indicates the compose file holds no document.
var ErrEmptyDocument = errors.New("compose document is empty")

// ErrNotMapping indicates the top level of the document is not a mapping.
var ErrNotMapping = errors.New("compose document is not a mapping")

// ErrDuplicateService indicates a service key appears twice.
var ErrDuplicateService = errors.New("duplicate service")

// ErrInvalidServiceName indicates a service key is not a legal compose
// service name.
var ErrInvalidServiceName = errors.New("invalid service name")

var serviceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidServiceName reports whether name is a legal compose service name.
// Legal names are also safe to use as a single file name.
func ValidServiceName(name string) bool {
	return serviceNamePattern.MatchString(name)
}

// yaml.v3 reports syntax errors as "yaml: line N: problem".
var yamlLinePattern = regexp.MustCompile(`(?s)^yaml: line (\d+): (.*)$`)

// ParseOutcome is the result of parsing one compose file: either a
// Project or a failure reason.
type ParseOutcome struct {
	Path    string
	Project *Project
	Err     error
}

// OK reports whether the file parsed into a project.
func (o ParseOutcome) OK() bool {
	return o.Err == nil && o.Project != nil
}

// Parse turns raw compose bytes into a Project. Failures are returned as
// *apperr.Error with KindInvalidInput; syntax errors carry a Location.
func Parse(name, path string, data []byte) ParseOutcome {
	out := ParseOutcome{Path: path}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		out.Err = syntaxFault(err)
		return out
	}

	root := documentRoot(&doc)
	if root == nil {
		out.Err = &apperr.Error{
			Kind:    apperr.KindInvalidInput,
			Message: fmt.Sprintf("%s is invalid or empty", path),
			Err:     ErrEmptyDocument,
		}
		return out
	}
	if root.Kind != yaml.MappingNode {
		out.Err = &apperr.Error{
			Kind:     apperr.KindInvalidInput,
			Message:  fmt.Sprintf("%s is not a compose mapping", path),
			Location: &apperr.Location{Line: root.Line, Column: root.Column},
			Err:      ErrNotMapping,
		}
		return out
	}

	project := &Project{
		Name:     name,
		Path:     path,
		Version:  NoVersion,
		Services: Services{},
		Volumes:  []string{},
		Networks: []string{},
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "version":
			if value.Kind == yaml.ScalarNode && !isNull(value) {
				project.Version = value.Value
			}
		case "services":
			services, err := parseServices(value)
			if err != nil {
				out.Err = err
				return out
			}
			project.Services = services
		case "volumes":
			project.Volumes = entryNames(value)
		case "networks":
			project.Networks = entryNames(value)
		}
	}

	out.Project = project
	return out
}

func syntaxFault(err error) *apperr.Error {
	m := yamlLinePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return apperr.InvalidYAML(apperr.Location{}, err.Error(), err)
	}
	line, _ := strconv.Atoi(m[1])
	// yaml.v3 does not expose the column of a syntax error.
	return apperr.InvalidYAML(apperr.Location{Line: line}, m[2], err)
}

// documentRoot returns the top-level node, or nil for an empty or null
// document.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if isNull(root) {
		return nil
	}
	return root
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

// parseServices reads the services mapping in document order. Repeated
// keys and illegal names are rejected at the key's position.
func parseServices(n *yaml.Node) (Services, *apperr.Error) {
	services := Services{}
	if n.Kind != yaml.MappingNode {
		return services, nil
	}
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if !ValidServiceName(key.Value) {
			return nil, serviceFault(key, fmt.Sprintf("Service name %q is not valid.", key.Value), ErrInvalidServiceName)
		}
		if seen[key.Value] {
			return nil, serviceFault(key, fmt.Sprintf("Service %s is defined more than once.", key.Value), ErrDuplicateService)
		}
		seen[key.Value] = true

		var def any
		if err := value.Decode(&def); err != nil {
			return nil, serviceFault(value, fmt.Sprintf("service %s: %v", key.Value, err), err)
		}
		services = append(services, Service{Name: key.Value, Definition: normalize(def)})
	}
	return services, nil
}

func serviceFault(n *yaml.Node, msg string, err error) *apperr.Error {
	return &apperr.Error{
		Kind:     apperr.KindInvalidInput,
		Message:  msg,
		Location: &apperr.Location{Line: n.Line, Column: n.Column},
		Err:      err,
	}
}

// entryNames lists the keys of a mapping or the scalar items of a
// sequence.
func entryNames(n *yaml.Node) []string {
	names := []string{}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			names = append(names, n.Content[i].Value)
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if item.Kind == yaml.ScalarNode {
				names = append(names, item.Value)
			}
		}
	}
	return names
}

// normalize converts map[any]any, which yaml.v3 produces for mappings
// with non-string keys, into map[string]any so the value encodes as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}
