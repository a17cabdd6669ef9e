// Package sanitize holds the reusable rules that coerce untrusted model JSON
// into contract-conforming values. Every rule is total: it never fails and it
// always yields a legal value for its field.
package sanitize

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by Parse when the text is not a JSON document.
var ErrInvalidJSON = errors.New("invalid JSON")

// Value is a read-only view over a parsed, untrusted JSON document.
type Value struct {
	r gjson.Result
}

// Parse validates text as JSON and wraps it.
func Parse(text string) (Value, error) {
	if strings.TrimSpace(text) == "" {
		return Value{}, errors.New("unexpected end of JSON input")
	}
	if !gjson.Valid(text) {
		return Value{}, ErrInvalidJSON
	}
	return Value{r: gjson.Parse(text)}, nil
}

// FromResult wraps an existing gjson result.
func FromResult(r gjson.Result) Value {
	return Value{r: r}
}

// Get returns the member named key. Keys are taken literally.
func (v Value) Get(key string) Value {
	if !v.IsObject() {
		return Value{}
	}
	return Value{r: v.r.Get(escapeKey(key))}
}

// First returns the first member among keys that exists and is not null.
func (v Value) First(keys ...string) Value {
	for _, k := range keys {
		if m := v.Get(k); m.Exists() && m.r.Type != gjson.Null {
			return m
		}
	}
	return Value{}
}

// Exists reports whether the value was present in the document.
func (v Value) Exists() bool { return v.r.Exists() }

func (v Value) IsObject() bool { return v.r.IsObject() }
func (v Value) IsArray() bool  { return v.r.IsArray() }
func (v Value) IsNull() bool   { return !v.r.Exists() || v.r.Type == gjson.Null }

// Str returns the string content when the value is a JSON string.
func (v Value) Str() (string, bool) {
	if v.r.Type != gjson.String {
		return "", false
	}
	return v.r.Str, true
}

// Num returns the number when the value is a JSON number.
func (v Value) Num() (float64, bool) {
	if v.r.Type != gjson.Number {
		return 0, false
	}
	return v.r.Num, true
}

// Items returns array elements, or nil for any other kind.
func (v Value) Items() []Value {
	if !v.IsArray() {
		return nil
	}
	arr := v.r.Array()
	out := make([]Value, 0, len(arr))
	for _, r := range arr {
		out = append(out, Value{r: r})
	}
	return out
}

// Raw returns the raw JSON text of the value.
func (v Value) Raw() string { return v.r.Raw }

// Interface returns the value decoded into plain Go types.
func (v Value) Interface() any { return v.r.Value() }

func escapeKey(key string) string {
	var b strings.Builder
	for _, c := range key {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
