// Package normalize turns raw model text into something a JSON decoder can
// accept: it unwraps markdown fences and escapes control characters that
// models like to leave inside string literals.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fencePattern    = regexp.MustCompile("(?s)```(.*?)```")
	languageTagLine = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_+-]*[ \t]*(?:\r?\n|$)`)
)

// ExtractJSON returns the trimmed body of the first fenced block holding a
// JSON object or array, or the trimmed text when no fence does. The fence's
// language tag, in any case, is dropped.
func ExtractJSON(text string) string {
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(languageTagLine.ReplaceAllString(m[1], ""))
		if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
			return body
		}
	}
	return strings.TrimSpace(text)
}

// SanitizeControlCharacters escapes raw control characters that appear inside
// JSON string literals. Bytes outside strings are copied unchanged, and
// existing escape sequences are preserved.
func SanitizeControlCharacters(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			b.WriteByte(c)
			continue
		}
		if inString && c < 0x20 {
			switch c {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				fmt.Fprintf(&b, `\u%04x`, c)
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Clean applies ExtractJSON followed by SanitizeControlCharacters.
func Clean(text string) string {
	return SanitizeControlCharacters(ExtractJSON(text))
}
