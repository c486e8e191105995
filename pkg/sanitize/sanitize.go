// Package sanitize normalizes extracted text before it is stored or
// embedded in LLM payloads. All functions are total: they never return
// an error and map invalid input to the empty string.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds sanitized output so a single pathological source
// cannot blow up downstream token budgets.
const MaxLength = 100000

var (
	unicodeEscapes = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)
	literalEscapes = regexp.MustCompile(`\\[nrtbfav\\"']`)
	whitespaceRuns = regexp.MustCompile(`[\s\p{Zs}]+`)
	jsonBreakers   = regexp.MustCompile(`[\\"]`)
)

// Text strips encoding artifacts (literal \uXXXX and backslash escape
// sequences left over from upstream serialization), removes control
// characters and Unicode noncharacters, canonically normalizes the
// result (NFD then NFC) and collapses whitespace. Idempotent.
func Text(s string) string {
	if s == "" {
		return ""
	}

	s = unicodeEscapes.ReplaceAllString(s, "")
	s = literalEscapes.ReplaceAllString(s, " ")
	s = stripControl(s)
	s = norm.NFC.String(norm.NFD.String(s))
	s = whitespaceRuns.ReplaceAllString(s, " ")
	s = truncate(s, MaxLength)

	// Trim after truncating: the cut can land on a collapsed space and
	// a trailing space would shrink again on a second pass.
	return strings.TrimSpace(s)
}

// Clip bounds s to at most max bytes, backing the cut off to a rune
// boundary so the result is always valid UTF-8.
func Clip(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// ForJSON applies Text and additionally removes quotes, backslashes,
// newlines, tabs and null bytes so the result can be interpolated into
// a JSON string without escaping.
func ForJSON(s string) string {
	s = Text(s)
	s = jsonBreakers.ReplaceAllString(s, "")
	s = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ", "\x00", "").Replace(s)
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}

// stripControl replaces C0/C1 control characters with spaces and drops
// the noncharacters U+FFFE and U+FFFF. Tabs and newlines count as
// control characters here; the whitespace collapse runs afterwards.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == 0xFFFE || r == 0xFFFF:
			// dropped
		case r < 0x20 || (r >= 0x7F && r <= 0x9F):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
