package sanitize

import (
	"context"
	"errors"
)

// ErrCapabilityUnavailable is the reason attached to an unavailable detector
// when the semantic backend could not be reached or loaded at start-up.
var ErrCapabilityUnavailable = errors.New("semantic detector unavailable")

// Span describes a named entity detected within a cell value.
type Span struct {
	Start int     // byte offset of the first character (UTF-8)
	End   int     // byte offset one past the last character
	Label string  // e.g. "Person", "GPE", "Organization"
	Score float32 // confidence in [0,1]; 1.0 when the backend does not score
}

// Classifier is a semantic backend that finds entity spans in a text.
// Implementations live in the ner and llmclassifier sub-packages.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]Span, error)
}

// EntityDetector is the semantic tier as seen by the Redactor. It is chosen
// once at start-up and never changes for the rest of the run.
type EntityDetector interface {
	// Detect returns the spans to redact. Spans with a label outside the
	// detector's target set are never returned.
	Detect(ctx context.Context, text string) ([]Span, error)
	// Available reports whether a semantic backend is loaded.
	Available() bool
}

type available struct {
	backend Classifier
	labels  map[string]bool
}

// NewAvailable wraps a loaded backend. Only spans labelled with one of labels
// are reported.
func NewAvailable(backend Classifier, labels []string) EntityDetector {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return &available{backend: backend, labels: set}
}

func (a *available) Available() bool { return true }

func (a *available) Detect(ctx context.Context, text string) ([]Span, error) {
	spans, err := a.backend.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	out := spans[:0]
	for _, sp := range spans {
		if a.labels[sp.Label] {
			out = append(out, sp)
		}
	}
	return out, nil
}

type unavailable struct {
	reason error
}

// NewUnavailable returns the no-op detector used in pattern-only mode.
// reason is kept for reporting; it may be nil.
func NewUnavailable(reason error) EntityDetector {
	if reason == nil {
		reason = ErrCapabilityUnavailable
	}
	return &unavailable{reason: reason}
}

func (u *unavailable) Available() bool { return false }

func (u *unavailable) Detect(context.Context, string) ([]Span, error) { return nil, nil }

// UnavailableReason extracts the start-up failure from a detector returned by
// NewUnavailable. It returns nil for available detectors.
func UnavailableReason(d EntityDetector) error {
	if u, ok := d.(*unavailable); ok {
		return u.reason
	}
	return nil
}
