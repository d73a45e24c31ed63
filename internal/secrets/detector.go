package secrets

import (
	"bytes"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// gitleaksDetector runs the gitleaks default rule set over plain text.
// The detector is not documented as safe for concurrent use, so calls are
// serialized.
type gitleaksDetector struct {
	mu       sync.Mutex
	detector *detect.Detector
}

func newGitleaksDetector() (*gitleaksDetector, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}
	return &gitleaksDetector{detector: detector}, nil
}

// finding is one gitleaks match reduced to what redaction needs.
type finding struct {
	ruleID string
	secret []byte
}

func (g *gitleaksDetector) detect(content []byte) []finding {
	g.mu.Lock()
	results := g.detector.DetectString(string(content))
	g.mu.Unlock()

	findings := make([]finding, 0, len(results))
	for _, f := range results {
		if f.Secret == "" {
			continue
		}
		findings = append(findings, finding{ruleID: f.RuleID, secret: []byte(f.Secret)})
	}
	return findings
}

// occurrences returns every byte range of secret in content. gitleaks
// reports line and column positions; matching the secret text directly
// keeps the ranges valid for multi-line log output.
func occurrences(content, secret []byte) []redaction {
	var out []redaction
	offset := 0
	for {
		i := bytes.Index(content[offset:], secret)
		if i < 0 {
			return out
		}
		start := offset + i
		out = append(out, redaction{start: start, end: start + len(secret)})
		offset = start + len(secret)
	}
}
