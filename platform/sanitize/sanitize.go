// Package sanitize provides text sanitization for user-supplied free text
// before it is stored or forwarded to staff.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML, drops control characters, collapses runs of spaces on each
// line and truncates to maxRunes (0 means no limit). Newlines are kept since
// tenants describe problems across several lines.
func Text(s string, maxRunes int) string {
	s = StripHTML(s)

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, isSpaceOrControl), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	result := strings.Join(kept, "\n")

	if maxRunes > 0 {
		runes := []rune(result)
		if len(runes) > maxRunes {
			result = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return result
}

func isSpaceOrControl(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
