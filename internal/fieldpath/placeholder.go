package fieldpath

import (
	"regexp"
	"strings"
)

// Placeholder markers. The double-brace syntax is shared with the document
// parser and the report generator and must not change.
const (
	OpenMarker  = "{{"
	CloseMarker = "}}"
)

var markerPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Placeholder renders the document marker for a field path.
func Placeholder(path string) string {
	return OpenMarker + path + CloseMarker
}

// Unwrap strips the double-brace markers from s. It reports false when s is
// not a single placeholder marker.
func Unwrap(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, OpenMarker) || !strings.HasSuffix(s, CloseMarker) {
		return "", false
	}

	inner := strings.TrimSpace(s[len(OpenMarker) : len(s)-len(CloseMarker)])
	if inner == "" || strings.ContainsAny(inner, "{}") {
		return "", false
	}

	return inner, true
}

// Extract returns the distinct field paths referenced by placeholder markers
// in text, in order of first appearance.
//
// Loop markers ({{#lines}} and {{/lines}}) are dropped and a formatter suffix
// ({{date_order|date:'%Y'}}) is cut off so only the field path remains.
func Extract(text string) []string {
	var out []string

	seen := make(map[string]struct{})

	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		path, ok := markerPath(m[1])
		if !ok {
			continue
		}

		if _, dup := seen[path]; dup {
			continue
		}

		seen[path] = struct{}{}
		out = append(out, path)
	}

	return out
}

// IsLoopMarker reports whether a marker body opens or closes a repeated block.
func IsLoopMarker(body string) bool {
	body = strings.TrimSpace(body)

	return strings.HasPrefix(body, "#") || strings.HasPrefix(body, "/")
}

// LoopFields returns the field names that open a repeated block ({{#name}}).
func LoopFields(text string) []string {
	var out []string

	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if name, ok := strings.CutPrefix(body, "#"); ok && name != "" {
			out = append(out, strings.TrimSpace(name))
		}
	}

	return out
}

func markerPath(body string) (string, bool) {
	body = strings.TrimSpace(body)
	if body == "" || IsLoopMarker(body) {
		return "", false
	}

	if field, _, found := strings.Cut(body, "|"); found {
		body = strings.TrimSpace(field)
	}

	return body, body != ""
}
