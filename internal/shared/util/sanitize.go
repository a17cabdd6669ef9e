package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameRunes caps sanitized upload names; the extension is kept.
const MaxFileNameRunes = 128

// ErrInvalidFileName is returned for names that are empty after cleaning or
// that try to escape their storage prefix.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns a client-supplied upload name into a single storage
// key segment. Path separators become underscores, control characters and
// surrounding dots are dropped, and whitespace runs collapse to one space.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") || !utf8.ValidString(name) {
		return "", ErrInvalidFileName
	}

	var b strings.Builder
	space := false
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('_')
			space = false
		case unicode.IsSpace(r):
			if !space {
				b.WriteByte(' ')
			}
			space = true
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
			space = false
		}
	}

	s := strings.Trim(strings.TrimSpace(b.String()), ".")
	if s == "" {
		return "", ErrInvalidFileName
	}
	return truncateName(s, MaxFileNameRunes), nil
}

func truncateName(name string, limit int) string {
	if utf8.RuneCountInString(name) <= limit {
		return name
	}
	ext := path.Ext(name)
	if utf8.RuneCountInString(ext) >= limit/2 {
		ext = ""
	}
	base := []rune(strings.TrimSuffix(name, ext))
	return strings.TrimSpace(string(base[:limit-utf8.RuneCountInString(ext)])) + ext
}
