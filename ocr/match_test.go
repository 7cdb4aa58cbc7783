package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name       string
		recognized string
		expected   string
		matched    bool
		rule       string
	}{
		{"exact ignoring case and space", "  Ba  ", "ba", true, RuleExact},
		{"one part of a pair", "A", "A a", true, RulePart},
		{"part as whole word in noisy text", "x A y", "A a", true, RulePart},
		{"substring of expected", "bà", "bà ba", true, RulePart},
		{"substring inside a word", "an", "lan", true, RuleSubstring},
		{"short expected with close answer", "ab", "ba", true, RuleShort},
		{"short expected rejects long answer", "tate", "a", false, ""},
		{"word boundary prevents partial word", "cat", "a", false, ""},
		{"empty recognition", "", "ô", false, ""},
		{"different letter", "o", "ô", false, ""},
		{"unicode case folding", "Đ", "đ", true, RuleExact},
		{"empty expected never matches", "a", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.recognized, tt.expected)
			assert.Equal(t, tt.matched, got.Matched)
			assert.Equal(t, tt.rule, got.Rule)
			assert.Equal(t, tt.recognized, got.Recognized)
			assert.Equal(t, tt.expected, got.Expected)
		})
	}
}

func TestMatchEscapesPattern(t *testing.T) {
	got := Match("1+1 là", "1+1")
	assert.True(t, got.Matched)
	assert.Equal(t, RulePart, got.Rule)

	assert.False(t, Match("11", "1+1 x").Matched)
}
