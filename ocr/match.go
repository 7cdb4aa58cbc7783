package ocr

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rules that can accept an answer, in evaluation order.
const (
	RuleExact     = "exact"
	RulePart      = "part"
	RuleSubstring = "substring"
	RuleShort     = "short"
)

// MatchResult is advisory feedback for the learner; it never affects scoring.
type MatchResult struct {
	Matched    bool   `json:"isMatched"`
	Recognized string `json:"userAnswer"`
	Expected   string `json:"expectedAnswer"`
	Rule       string `json:"rule,omitempty"`
}

// Match compares recognized text with a non-empty expected answer, case-insensitively:
//  1. equal after trimming
//  2. equal to a whitespace-separated part of expected, or such a part occurs as a whole
//     word in the raw recognized text
//  3. a non-empty substring of expected
//  4. for expected answers of at most two characters: every character of expected occurs
//     in the answer and the answer is at most one character longer
func Match(recognized, expected string) MatchResult {
	res := MatchResult{Recognized: recognized, Expected: expected}
	user := strings.ToLower(strings.TrimSpace(recognized))
	want := strings.ToLower(strings.TrimSpace(expected))
	if want == "" {
		return res
	}

	if user == want {
		res.Matched, res.Rule = true, RuleExact
		return res
	}

	for _, part := range strings.Fields(want) {
		if user == part || containsWord(recognized, part) {
			res.Matched, res.Rule = true, RulePart
			return res
		}
	}

	if user != "" && strings.Contains(want, user) && utf8.RuneCountInString(user) <= utf8.RuneCountInString(want) {
		res.Matched, res.Rule = true, RuleSubstring
		return res
	}

	if utf8.RuneCountInString(want) <= 2 {
		have := runeSet(user)
		all := true
		for r := range runeSet(want) {
			if !have[r] {
				all = false
				break
			}
		}
		if all && utf8.RuneCountInString(user) <= utf8.RuneCountInString(want)+1 {
			res.Matched, res.Rule = true, RuleShort
		}
	}
	return res
}

func containsWord(text, word string) bool {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range s {
		if !unicode.IsSpace(r) {
			set[r] = true
		}
	}
	return set
}
