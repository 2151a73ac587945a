package sanitize

import (
	"log/slog"
	"regexp"
)

// \d and \s are spelled out with Unicode classes so that full-width digits
// and ideographic spaces, common in Japanese records, are matched too.
const (
	digit = `\p{Nd}`
	sep   = `[-\s\p{Zs}]?`
)

// pattern is one structural detector of the fallback tier.
type pattern struct {
	name string
	re   *regexp.Regexp
}

// builtinPatterns is applied in this order. Phone runs before mobile and
// therefore claims most mobile numbers first; keep the order as is, output
// of earlier runs depends on it.
var builtinPatterns = []pattern{
	{"email", regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+`)},
	{"phone", regexp.MustCompile(`\(?` + digit + `{2,5}\)?` + sep + digit + `{1,4}` + sep + digit + `{3,4}`)},
	{"mobile", regexp.MustCompile(`0[5789]0` + sep + digit + `{4}` + sep + digit + `{4}`)},
	{"postal", regexp.MustCompile(`〒?` + digit + `{3}[-‐－]` + digit + `{4}`)},
	{"address", regexp.MustCompile(`(北海道|東京都|(?:大阪|京都)府|.{2,3}県).{2,50}(丁目|番地|号|[-` + digit + `]+F)`)},
}

// PatternLibrary is the deterministic fallback tier. It is always the last
// step of a scan, whether or not the semantic tier ran.
type PatternLibrary struct {
	patterns []pattern
	marker   string
}

// NewPatternLibrary returns the built-in detectors replacing matches with marker.
func NewPatternLibrary(marker string) *PatternLibrary {
	return &PatternLibrary{patterns: builtinPatterns, marker: marker}
}

// Scrub replaces every match of every detector with the marker. Each
// detector sees the output of the previous one, so matches never overlap.
func (l *PatternLibrary) Scrub(text string) string {
	for _, p := range l.patterns {
		if !p.re.MatchString(text) {
			continue
		}
		slog.Debug("sanitize: pattern matched", "pattern", p.name)
		text = p.re.ReplaceAllLiteralString(text, l.marker)
	}
	return text
}
