package sanitize

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

// Text returns the trimmed string content, or "" for non-strings.
func Text(v Value) string {
	s, ok := v.Str()
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// TextOr returns Text(v), or def when that is empty.
func TextOr(v Value, def string) string {
	if s := Text(v); s != "" {
		return s
	}
	return def
}

// NullableText returns nil for missing, null or blank values.
func NullableText(v Value) *string {
	s := Text(v)
	if s == "" {
		return nil
	}
	return &s
}

// Truncate cuts s to max runes and trims trailing whitespace from the cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimRightFunc(string(r[:max]), unicode.IsSpace)
}

// TruncateWithEllipsis cuts s to max runes and appends "..." when it was cut.
func TruncateWithEllipsis(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// ListOptions controls List.
type ListOptions struct {
	Max    int // 0 means unbounded
	MaxLen int // per item, 0 means unbounded
	Dedupe bool
}

// List keeps the non-empty string items of an array, trimmed. The result is
// never nil.
func List(v Value, opts ListOptions) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, item := range v.Items() {
		s := Text(item)
		if opts.MaxLen > 0 {
			s = Truncate(s, opts.MaxLen)
		}
		if s == "" {
			continue
		}
		if opts.Dedupe {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
		}
		out = append(out, s)
		if opts.Max > 0 && len(out) >= opts.Max {
			break
		}
	}
	return out
}

// Strings is List without limits.
func Strings(v Value) []string {
	return List(v, ListOptions{})
}

// Dedupe removes repeated entries, keeping first-seen order.
func Dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Coerce converts a value to a number the permissive way: numbers pass,
// numeric strings are parsed, booleans map to 0/1 and anything else is NaN.
func Coerce(v Value) float64 {
	switch v.r.Type {
	case gjson.Number:
		return v.r.Num
	case gjson.String:
		s := strings.TrimSpace(v.r.Str)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case gjson.True:
		return 1
	case gjson.False, gjson.Null:
		return 0
	default:
		return math.NaN()
	}
}

// ClampScore rounds n and clamps it to [min, max]. Non-finite input yields min.
func ClampScore(n float64, min, max int) int {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return min
	}
	r := int(math.Floor(n + 0.5))
	if r < min {
		return min
	}
	if r > max {
		return max
	}
	return r
}

// Score coerces v and clamps it to [min, max].
func Score(v Value, min, max int) int {
	return ClampScore(Coerce(v), min, max)
}

// StrictNumber returns the JSON number, or 0 for any other kind.
func StrictNumber(v Value) float64 {
	n, ok := v.Num()
	if !ok {
		return 0
	}
	return n
}

// Confidence returns a JSON number clamped to [0, 1], or def when missing.
func Confidence(v Value, def float64) float64 {
	n, ok := v.Num()
	if !ok {
		n = def
	}
	return math.Max(0, math.Min(1, n))
}

// Enum returns the string value when it is one of allowed, else def.
func Enum[T ~string](v Value, allowed []T, def T) T {
	s, ok := v.Str()
	if !ok {
		return def
	}
	for _, a := range allowed {
		if string(a) == s {
			return a
		}
	}
	return def
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// LimitWords keeps the first n words of s. Text within the limit is returned
// unchanged.
func LimitWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ")
}
