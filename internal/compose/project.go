package compose

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errServicesNotObject = errors.New("services must be a JSON object")

// NoVersion is reported when a compose document has no version key.
const NoVersion = "-"

// Project describes one compose project. It is built fresh from disk on
// every query.
type Project struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Version  string   `json:"version"`
	Services Services `json:"services"`
	Volumes  []string `json:"volumes"`
	Networks []string `json:"networks"`
	// Content is the raw compose text. Only single-project lookups fill it.
	Content string `json:"content,omitempty"`
}

// Service is one entry of the services mapping. Definition is the raw
// value taken from the document.
type Service struct {
	Name       string
	Definition any
}

// ContainerName returns the explicit container_name of the service, or
// the empty string when none is set.
func (s Service) ContainerName() string {
	def, ok := s.Definition.(map[string]any)
	if !ok {
		return ""
	}
	name, _ := def["container_name"].(string)
	return name
}

// Services keeps the services of a document in document order.
type Services []Service

// Names returns the service names in document order.
func (s Services) Names() []string {
	names := make([]string, len(s))
	for i, svc := range s {
		names[i] = svc.Name
	}
	return names
}

// MarshalJSON encodes the services as a JSON object whose keys follow
// document order.
func (s Services) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, svc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(svc.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(svc.Definition)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into services, keeping key order.
func (s *Services) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errServicesNotObject
	}

	var out Services
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var def any
		if err := dec.Decode(&def); err != nil {
			return err
		}
		out = append(out, Service{Name: key, Definition: def})
	}
	*s = out
	return nil
}
