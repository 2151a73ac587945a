package sanitize

import (
	"sort"
	"unicode/utf8"
)

// validSpans drops spans with out-of-range offsets or offsets that do not
// sit on a rune boundary. A misbehaving backend must not be able to split a
// multi-byte character.
func validSpans(text string, spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if sp.Start < 0 || sp.End > len(text) || sp.Start >= sp.End {
			continue
		}
		if !isRuneBoundary(text, sp.Start) || !isRuneBoundary(text, sp.End) {
			continue
		}
		out = append(out, sp)
	}
	return out
}

func isRuneBoundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return utf8.RuneStart(s[i])
}

// sortSpansDesc orders spans by start offset, highest first. The sort is
// stable so spans sharing a start keep the backend's order.
func sortSpansDesc(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start > spans[j].Start
	})
}

// mergeSpans joins overlapping spans into one covering their union (assumes
// sorted descending by Start). The label of the later-starting span is kept.
func mergeSpans(spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if n := len(out); n > 0 && sp.End > out[n-1].Start {
			last := &out[n-1]
			last.Start = sp.Start
			if sp.End > last.End {
				last.End = sp.End
			}
			continue
		}
		out = append(out, sp)
	}
	return out
}

// applySpans replaces each span with marker, from the last span to the
// first, so that earlier offsets stay valid while the text changes.
func applySpans(text string, spans []Span, marker string) string {
	spans = validSpans(text, spans)
	sortSpansDesc(spans)
	spans = mergeSpans(spans)
	for _, sp := range spans {
		text = text[:sp.Start] + marker + text[sp.End:]
	}
	return text
}

// RuneToByteOffsets converts character offsets, as reported by Python NLP
// libraries, into byte offsets into text. Offsets past the end map to
// len(text)+1 so that validSpans rejects them.
func RuneToByteOffsets(text string, start, end int) (int, int) {
	bs, be := -1, -1
	i := 0
	for pos := range text {
		if i == start {
			bs = pos
		}
		if i == end {
			be = pos
		}
		i++
	}
	if start == i {
		bs = len(text)
	}
	if end == i {
		be = len(text)
	}
	if bs < 0 || start < 0 {
		bs = len(text) + 1
	}
	if be < 0 || end < 0 {
		be = len(text) + 1
	}
	return bs, be
}
