package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration is a time.Duration that koanf fills from text such as "500ms",
// whether it comes from YAML or a COMPOSED_ variable.
type Duration time.Duration

// UnmarshalText parses a Go duration string. Negative values are rejected
// since every configured duration is a wait.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration as text, which also makes it encode as
// a JSON string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Duration returns the value as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
