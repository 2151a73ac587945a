// Package sanitize decides what happens to a single cell of a business
// record: masked entirely, scanned for names, addresses and contact details,
// length-limited, or left alone. Redaction is one-way; nothing needed to
// recover the original value is kept.
//
// Usage:
//
//	rules := sanitize.DefaultRules()
//	r := sanitize.NewRedactor(rules, detector)
//	policy := rules.Classify(header)
//	out, err := r.Redact(ctx, value, policy)
package sanitize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Mode is the redaction mode of a run. It is fixed when the Redactor is built.
type Mode int

const (
	// ModeSemantic runs the entity detector before the pattern library.
	ModeSemantic Mode = iota
	// ModePatternOnly runs the pattern library alone.
	ModePatternOnly
)

func (m Mode) String() string {
	if m == ModeSemantic {
		return "semantic"
	}
	return "pattern-only"
}

// Redactor applies a column policy to cell values. It keeps no per-cell
// state and is safe to reuse across every cell of a run.
type Redactor struct {
	rules    Rules
	detector EntityDetector
	patterns *PatternLibrary
	mode     Mode
}

// NewRedactor creates a Redactor. A nil detector means pattern-only mode.
func NewRedactor(rules Rules, detector EntityDetector) *Redactor {
	if detector == nil {
		detector = NewUnavailable(nil)
	}
	mode := ModePatternOnly
	if detector.Available() {
		mode = ModeSemantic
	}
	return &Redactor{
		rules:    rules,
		detector: detector,
		patterns: NewPatternLibrary(rules.Marker),
		mode:     mode,
	}
}

// Mode returns the mode chosen at construction.
func (r *Redactor) Mode() Mode { return r.mode }

// Redact returns the value to emit for a cell under policy p.
// Blank values come back unchanged whatever the policy. The only error is a
// failure of the semantic backend, which ends the run.
func (r *Redactor) Redact(ctx context.Context, value string, p Policy) (string, error) {
	if strings.TrimSpace(value) == "" {
		return value, nil
	}

	out := value
	if p.Mask {
		out = r.rules.Marker
	} else {
		var err error
		out, err = r.scan(ctx, value)
		if err != nil {
			return "", err
		}
	}

	if p.Truncate {
		out = truncate(out, r.rules.MaxTextLength)
	}
	return out, nil
}

func (r *Redactor) scan(ctx context.Context, text string) (string, error) {
	if r.mode == ModeSemantic {
		spans, err := r.detector.Detect(ctx, text)
		if err != nil {
			return "", fmt.Errorf("sanitize: entity detection: %w", err)
		}
		if len(spans) > 0 {
			slog.Debug("sanitize: entities detected", "count", len(spans))
			text = applySpans(text, spans, r.rules.Marker)
		}
	}
	return r.patterns.Scrub(text), nil
}

// truncate cuts s to at most limit characters. No ellipsis is added.
func truncate(s string, limit int) string {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
