package sanitize

import (
	"math"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, text string) Value {
	t.Helper()
	v, err := Parse(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return v
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "{not json", "Sure! here it is"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestGetLiteralKeys(t *testing.T) {
	v := mustParse(t, `{"a.b":"dotted","a":{"b":"nested"}}`)
	if got := Text(v.Get("a.b")); got != "dotted" {
		t.Fatalf("expected literal key lookup, got %q", got)
	}
	if got := Text(v.Get("a").Get("b")); got != "nested" {
		t.Fatalf("expected nested lookup, got %q", got)
	}
}

func TestGetOnNonObject(t *testing.T) {
	v := mustParse(t, `["a"]`)
	if v.Get("a").Exists() {
		t.Fatalf("arrays should have no members")
	}
}

func TestFirstSkipsNull(t *testing.T) {
	v := mustParse(t, `{"kpiSuggestions":null,"kpi_suggestions":["x"]}`)
	got := Strings(v.First("kpiSuggestions", "kpi_suggestions"))
	if !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("unexpected %v", got)
	}
}

func TestTextVariants(t *testing.T) {
	v := mustParse(t, `{"s":"  hi  ","n":3,"blank":"  "}`)
	if Text(v.Get("s")) != "hi" {
		t.Fatalf("expected trimmed string")
	}
	if Text(v.Get("n")) != "" {
		t.Fatalf("numbers are not text")
	}
	if TextOr(v.Get("blank"), "def") != "def" {
		t.Fatalf("expected default for blank")
	}
	if NullableText(v.Get("missing")) != nil {
		t.Fatalf("expected nil for missing")
	}
}

func TestListOptions(t *testing.T) {
	v := mustParse(t, `[" a ","b","a",3,"","c","d"]`)
	got := List(v, ListOptions{Max: 3, Dedupe: true})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected %v", got)
	}
	if got := List(mustParse(t, `{"x":1}`), ListOptions{}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
	long := List(mustParse(t, `["abcdef  ghi"]`), ListOptions{MaxLen: 8})
	if long[0] != "abcdef" {
		t.Fatalf("expected trimmed truncation, got %q", long[0])
	}
}

func TestScore(t *testing.T) {
	v := mustParse(t, `{"a":85.6,"b":"72","c":-4,"d":250,"e":"abc","f":true,"g":null}`)
	cases := map[string]int{"a": 86, "b": 72, "c": 0, "d": 100, "e": 0, "f": 1, "g": 0, "missing": 0}
	for key, want := range cases {
		if got := Score(v.Get(key), 0, 100); got != want {
			t.Fatalf("Score(%s) = %d, want %d", key, got, want)
		}
	}
}

func TestClampScoreNonFinite(t *testing.T) {
	if ClampScore(math.Inf(1), 0, 100) != 0 || ClampScore(math.NaN(), 0, 100) != 0 {
		t.Fatalf("non-finite should clamp to min")
	}
}

func TestStrictNumber(t *testing.T) {
	v := mustParse(t, `{"a":12,"b":"12"}`)
	if StrictNumber(v.Get("a")) != 12 || StrictNumber(v.Get("b")) != 0 {
		t.Fatalf("strict number should ignore strings")
	}
}

func TestConfidence(t *testing.T) {
	v := mustParse(t, `{"hi":1.7,"lo":-1,"ok":0.42}`)
	if Confidence(v.Get("hi"), 0.5) != 1 || Confidence(v.Get("lo"), 0.5) != 0 {
		t.Fatalf("confidence should clamp")
	}
	if Confidence(v.Get("ok"), 0.5) != 0.42 || Confidence(v.Get("none"), 0.5) != 0.5 {
		t.Fatalf("unexpected confidence defaults")
	}
}

type impact string

func TestEnum(t *testing.T) {
	allowed := []impact{"high", "medium", "low"}
	v := mustParse(t, `{"a":"high","b":"HUGE"}`)
	if Enum(v.Get("a"), allowed, "medium") != "high" {
		t.Fatalf("expected allowed member")
	}
	if Enum(v.Get("b"), allowed, "medium") != "medium" {
		t.Fatalf("expected default member")
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("short", 10) != "short" {
		t.Fatalf("short text should be unchanged")
	}
	if TruncateWithEllipsis("abcdef", 3) != "abc..." {
		t.Fatalf("unexpected ellipsis truncation")
	}
	if TruncateWithEllipsis("abc", 3) != "abc" {
		t.Fatalf("no ellipsis at exact length")
	}
}

func TestLimitWords(t *testing.T) {
	if got := LimitWords("one two three four", 2); got != "one two" {
		t.Fatalf("unexpected %q", got)
	}
	if WordCount(" a  b\nc ") != 3 {
		t.Fatalf("unexpected word count")
	}
}
