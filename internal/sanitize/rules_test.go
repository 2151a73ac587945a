package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules_Classify(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		header string
		want   Policy
	}{
		{"氏名", Policy{Mask: true}},
		{"お名前", Policy{Mask: true}},
		{"会社名", Policy{Mask: true}},
		{"住所", Policy{Mask: true}},
		{"電話番号", Policy{Mask: true}},
		{"TEL", Policy{Mask: true}},
		{"E-Mail", Policy{Mask: true}},
		{"  Password  ", Policy{Mask: true}},
		{"FAX", Policy{Mask: true}},
		{"担当者", Policy{Mask: true}},
		{"郵便番号", Policy{Mask: true}},
		{"顧客コード", Policy{Mask: true}},
		{"ＰＨＳ", Policy{}},
		// Substring matching, not whole words.
		{"Hotel", Policy{Mask: true}},
		// Memo and remarks are mask keywords as well as truncate keywords.
		{"メモ", Policy{Mask: true, Truncate: true}},
		{"備考欄", Policy{Mask: true, Truncate: true}},
		{"金額", Policy{}},
		{"日付", Policy{}},
		{"内容", Policy{}},
		{"", Policy{}},
		{"   ", Policy{}},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Classify(tt.header))
		})
	}
}

func TestRules_ClassifyTruncateOnly(t *testing.T) {
	rules := DefaultRules()
	rules.MaskKeywords = []string{"氏名"}

	assert.Equal(t, Policy{Truncate: true}, rules.Classify("メモ"))
	assert.Equal(t, Policy{Mask: true}, rules.Classify("氏名"))
}

func TestRules_DefaultRulesIsCopy(t *testing.T) {
	a := DefaultRules()
	a.MaskKeywords[0] = "changed"
	a.Marker = "###"

	b := DefaultRules()
	assert.Equal(t, "名前", b.MaskKeywords[0])
	assert.Equal(t, "***", b.Marker)
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "SCAN", Policy{}.String())
	assert.Equal(t, "MASK", Policy{Mask: true}.String())
	assert.Equal(t, "SCAN+TRUNCATE", Policy{Truncate: true}.String())
	assert.Equal(t, "MASK+TRUNCATE", Policy{Mask: true, Truncate: true}.String())
	assert.True(t, Policy{}.Scan())
	assert.False(t, Policy{Mask: true}.Scan())
}
