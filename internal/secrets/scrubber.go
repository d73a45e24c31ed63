package secrets

import (
	"bytes"
	"fmt"
	"sort"
)

// Scrubber redacts secrets from content.
type Scrubber interface {
	// Scrub returns content with every detected secret replaced.
	Scrub(content []byte) *Result

	// IsEnabled reports whether scrubbing is active.
	IsEnabled() bool
}

// Result describes one scrub.
type Result struct {
	// Scrubbed is the redacted content.
	Scrubbed []byte

	// ByRule counts matches per rule ID. Matched values are never kept.
	ByRule map[string]int
}

// Total returns the number of matches across all rules.
func (r *Result) Total() int {
	n := 0
	for _, c := range r.ByRule {
		n += c
	}
	return n
}

type scrubber struct {
	config   *Config
	gitleaks *gitleaksDetector
}

type redaction struct {
	start, end int
}

// New creates a Scrubber. A nil config uses DefaultConfig.
func New(cfg *Config) (Scrubber, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &scrubber{config: cfg}
	if cfg.Enabled && cfg.Gitleaks {
		detector, err := newGitleaksDetector()
		if err != nil {
			return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
		}
		s.gitleaks = detector
	}
	return s, nil
}

// Scrub implements Scrubber.
func (s *scrubber) Scrub(content []byte) *Result {
	result := &Result{Scrubbed: content, ByRule: make(map[string]int)}
	if !s.config.Enabled || len(content) == 0 {
		return result
	}

	var redactions []redaction
	for _, rule := range s.config.compiledRules {
		if !hasKeyword(rule, content) {
			continue
		}
		for _, m := range rule.pattern.FindAllIndex(content, -1) {
			if s.isAllowed(content[m[0]:m[1]]) {
				continue
			}
			result.ByRule[rule.ID]++
			redactions = append(redactions, redaction{start: m[0], end: m[1]})
		}
	}
	if s.gitleaks != nil {
		for _, f := range s.gitleaks.detect(content) {
			if s.isAllowed(f.secret) {
				continue
			}
			result.ByRule[f.ruleID]++
			redactions = append(redactions, occurrences(content, f.secret)...)
		}
	}
	if len(redactions) == 0 {
		return result
	}

	sort.Slice(redactions, func(i, j int) bool { return redactions[i].start < redactions[j].start })
	merged := mergeRedactions(redactions)

	var buf bytes.Buffer
	buf.Grow(len(content))
	last := 0
	for _, r := range merged {
		buf.Write(content[last:r.start])
		buf.WriteString(s.config.Redaction)
		last = r.end
	}
	buf.Write(content[last:])
	result.Scrubbed = buf.Bytes()
	return result
}

// IsEnabled implements Scrubber.
func (s *scrubber) IsEnabled() bool {
	return s.config.Enabled
}

func hasKeyword(rule *compiledRule, content []byte) bool {
	if len(rule.keywords) == 0 {
		return true
	}
	for _, kw := range rule.keywords {
		if kw.Match(content) {
			return true
		}
	}
	return false
}

func (s *scrubber) isAllowed(match []byte) bool {
	for _, re := range s.config.compiledAllowList {
		if re.Match(match) {
			return true
		}
	}
	return false
}

// mergeRedactions merges overlapping or adjacent ranges. Input must be
// sorted by start.
func mergeRedactions(redactions []redaction) []redaction {
	merged := []redaction{redactions[0]}
	for _, curr := range redactions[1:] {
		last := &merged[len(merged)-1]
		if curr.start <= last.end {
			if curr.end > last.end {
				last.end = curr.end
			}
			continue
		}
		merged = append(merged, curr)
	}
	return merged
}

// NoopScrubber returns content unchanged.
type NoopScrubber struct{}

// Scrub returns content unchanged.
func (NoopScrubber) Scrub(content []byte) *Result {
	return &Result{Scrubbed: content, ByRule: map[string]int{}}
}

// IsEnabled returns false.
func (NoopScrubber) IsEnabled() bool {
	return false
}

var (
	_ Scrubber = (*scrubber)(nil)
	_ Scrubber = NoopScrubber{}
)
