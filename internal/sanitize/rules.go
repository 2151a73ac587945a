package sanitize

import "strings"

// Rules holds the fixed masking configuration. The values returned by
// DefaultRules must match earlier releases byte for byte, since previously
// masked files are compared against new output.
//
// A Rules value is built once at start-up and passed to everything that
// needs it; nothing reads these settings from package state.
type Rules struct {
	Marker        string // replaces masked or detected content
	OutputPrefix  string // prepended to the source file name
	MaxTextLength int    // in characters, for truncate columns

	MaskKeywords     []string // header substrings that mask the whole column
	TruncateKeywords []string // header substrings that mark long free text
	EntityLabels     []string // semantic labels that are redacted

	CSVEncodings  []string // tried in order when reading delimited text
	ProgressEvery int      // rows between progress log lines
}

// DefaultRules returns a fresh copy of the built-in rules.
func DefaultRules() Rules {
	return Rules{
		Marker:        "***",
		OutputPrefix:  "【マスク済み】",
		MaxTextLength: 255,
		MaskKeywords: []string{
			"名前", "氏名", "お名前", "姓", "名", "苗字",
			"ふりがな", "フリガナ", "よみがな", "ヨミガナ", "よみ", "かな", "カナ",
			"会社", "企業", "法人", "組織",
			"住所", "都道府県", "市区町村", "番地", "建物",
			"パスワード", "pw", "pass", "password",
			"電話", "tel", "phone", "携帯", "mobile", "phs",
			"fax", "ファックス", "ファクス",
			"mail", "メール", "email",
			"登録者", "担当者", "備考", "メモ", "郵便番号", "顧客コード", "会社コード",
		},
		TruncateKeywords: []string{"メモ", "備考"},
		EntityLabels:     []string{"Person", "GPE", "Location", "Organization", "Facility"},
		CSVEncodings:     []string{"utf-8-sig", "cp932", "shift_jis", "utf-8"},
		ProgressEvery:    50,
	}
}

// Policy is the treatment derived for a column from its header.
// The zero value is the default scan policy.
type Policy struct {
	Mask     bool // replace any non-blank value with the marker
	Truncate bool // cut to MaxTextLength after everything else
}

// Scan reports whether values are run through entity and pattern redaction.
// Masking supersedes scanning.
func (p Policy) Scan() bool { return !p.Mask }

func (p Policy) String() string {
	s := "SCAN"
	if p.Mask {
		s = "MASK"
	}
	if p.Truncate {
		s += "+TRUNCATE"
	}
	return s
}

// Classify derives the policy for a column from its header text.
// Matching is a case-insensitive substring test. An empty header is never
// masked: an unlabelled column cannot be judged sensitive by name.
func (r Rules) Classify(header string) Policy {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return Policy{}
	}
	return Policy{
		Mask:     containsAny(h, r.MaskKeywords),
		Truncate: containsAny(h, r.TruncateKeywords),
	}
}

func containsAny(h string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(h, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
