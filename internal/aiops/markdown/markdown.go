// Package markdown cleans free-text model output. Cleanup is an ordered list
// of rules; each rule sees the lines produced by the previous one.
package markdown

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Rule rewrites the lines of a document.
type Rule struct {
	Name  string
	Apply func(lines []string) []string
}

var (
	openFencePattern  = regexp.MustCompile("^```[\\w-]*\\s*$")
	closeFencePattern = regexp.MustCompile("^```\\s*$")
	separatorPattern  = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
	headingPattern    = regexp.MustCompile(`^#{1,6}\s`)

	preamblePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(sure|certainly|of course|absolutely|okay|ok)\b`),
		regexp.MustCompile(`(?i)^here('s|’s| is| are)\b`),
		regexp.MustCompile(`(?i)^(below is|the following is)\b`),
		regexp.MustCompile(`(?i)^i('ve|’ve| have) (created|prepared|generated|written|drafted|updated|improved)\b`),
	}
	epiloguePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(please )?let me know\b`),
		regexp.MustCompile(`(?i)^feel free\b`),
		regexp.MustCompile(`(?i)^i hope (this|that|it)\b`),
		regexp.MustCompile(`(?i)^hope (this|that|it) helps\b`),
		regexp.MustCompile(`(?i)^if you('d|’d| would) like\b`),
		regexp.MustCompile(`(?i)^would you like\b`),
		regexp.MustCompile(`(?i)^(note|disclaimer):`),
	}
)

// DefaultRules is the cleanup pipeline used for generated documents.
var DefaultRules = []Rule{
	{Name: "strip-code-fence", Apply: stripCodeFence},
	{Name: "strip-preamble", Apply: stripPreamble},
	{Name: "strip-epilogue", Apply: stripEpilogue},
	{Name: "strip-boundary-markers", Apply: StripBoundaryMarkers},
}

// Clean runs DefaultRules and trims the result.
func Clean(text string) string {
	return Apply(text, DefaultRules...)
}

// Apply runs rules in order and trims the result.
func Apply(text string, rules ...Rule) string {
	lines := splitLines(text)
	for _, r := range rules {
		lines = r.Apply(lines)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// stripCodeFence keeps the body of a fenced block when one wraps the
// document, and drops any stray fence lines otherwise.
func stripCodeFence(lines []string) []string {
	open, close := -1, -1
	for i, l := range lines {
		if openFencePattern.MatchString(strings.TrimSpace(l)) {
			open = i
			break
		}
	}
	if open >= 0 {
		for i := len(lines) - 1; i > open; i-- {
			if closeFencePattern.MatchString(strings.TrimSpace(lines[i])) {
				close = i
				break
			}
		}
	}
	if open >= 0 && close > open {
		return append([]string(nil), lines[open+1:close]...)
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		out = append(out, l)
	}
	return out
}

func stripPreamble(lines []string) []string {
	i := 0
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		if t == "" || matchesAny(preamblePatterns, t) {
			i++
			continue
		}
		break
	}
	return lines[i:]
}

func stripEpilogue(lines []string) []string {
	end := len(lines)
	for end > 0 {
		t := strings.TrimSpace(lines[end-1])
		if t == "" || matchesAny(epiloguePatterns, t) {
			end--
			continue
		}
		break
	}
	lines = lines[:end]

	// A closing separator followed by a short note is commentary, not content.
	for i := len(lines) - 1; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if !separatorPattern.MatchString(t) {
			continue
		}
		if isTrailingNote(lines[i+1:]) {
			return lines[:i]
		}
		break
	}
	return lines
}

func isTrailingNote(tail []string) bool {
	count := 0
	for _, l := range tail {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		if headingPattern.MatchString(t) {
			return false
		}
		count++
	}
	return count <= 3
}

// StripBoundaryMarkers drops leading and trailing lines that are exactly
// `"""` or `---`, along with surrounding blank lines.
func StripBoundaryMarkers(lines []string) []string {
	isMarker := func(s string) bool {
		t := strings.TrimSpace(s)
		return t == "" || t == `"""` || t == "---"
	}
	start, end := 0, len(lines)
	for start < end && isMarker(lines[start]) {
		start++
	}
	for end > start && isMarker(lines[end-1]) {
		end--
	}
	return lines[start:end]
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// IsJSONShaped reports whether text looks like a JSON payload rather than a
// markdown document.
func IsJSONShaped(text string) bool {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return true
	}
	return gjson.Valid(t) && gjson.Parse(t).IsObject()
}

// Section is one H2 block of a document.
type Section struct {
	Heading string
	Body    string
}

// SplitH2 splits a document on "## " headings. Text before the first heading
// is discarded.
func SplitH2(text string) []Section {
	var (
		out     []Section
		current *Section
		body    []string
	)
	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(strings.Join(body, "\n"))
			out = append(out, *current)
		}
		body = nil
	}
	for _, l := range splitLines(text) {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "## ") {
			flush()
			current = &Section{Heading: strings.TrimSpace(strings.TrimPrefix(t, "## "))}
			continue
		}
		if current != nil {
			body = append(body, l)
		}
	}
	flush()
	return out
}

// FindSection returns the body of the first section whose heading matches
// name, ignoring case.
func FindSection(sections []Section, name string) (string, bool) {
	for _, s := range sections {
		if strings.EqualFold(s.Heading, name) {
			return s.Body, true
		}
	}
	return "", false
}
