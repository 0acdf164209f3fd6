package utils

import (
	"html"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxDisplayLen caps user-supplied text echoed back into chat messages.
const MaxDisplayLen = 1024

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func getStrictPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Sanitize strips every HTML tag from s, unescapes the entities bluemonday
// leaves behind, collapses surrounding whitespace and caps the result at
// MaxDisplayLen runes.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = html.UnescapeString(getStrictPolicy().Sanitize(s))
	return Truncate(strings.TrimSpace(s), MaxDisplayLen)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

// EscapeMarkdown escapes the characters legacy Telegram Markdown treats as
// entity delimiters.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// StripQuotes removes one pair of matching surrounding quotes.
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// MaskKey shortens a license key for lists: keys longer than 20 characters
// keep their first 8 and last 4 characters.
func MaskKey(key string) string {
	if len(key) <= 20 {
		return key
	}
	return key[:8] + "..." + key[len(key)-4:]
}
