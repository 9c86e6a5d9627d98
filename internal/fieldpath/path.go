package fieldpath

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins the segments of a field path.
const Separator = "."

// Path is a parsed dotted field path such as "partner_id.country_id.name".
type Path struct {
	Segments []string
}

// Parse parses a field path string into a Path.
// Every segment must be a non-empty identifier.
func Parse(path string) (Path, error) {
	if path == "" {
		return Path{}, errors.New("empty path")
	}

	var segments []string

	for part := range strings.SplitSeq(path, Separator) {
		if part == "" {
			return Path{}, fmt.Errorf("invalid path %q: empty segment", path)
		}

		if !isValidIdent(part) {
			return Path{}, fmt.Errorf("invalid path %q: invalid identifier %q", path, part)
		}

		segments = append(segments, part)
	}

	return Path{Segments: segments}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(path string) Path {
	p, err := Parse(path)
	if err != nil {
		panic(err)
	}

	return p
}

// String returns the dotted representation.
func (p Path) String() string {
	return strings.Join(p.Segments, Separator)
}

// Depth is the number of segments minus one; root fields have depth 0.
func (p Path) Depth() int {
	if len(p.Segments) == 0 {
		return 0
	}

	return len(p.Segments) - 1
}

// Name returns the leaf segment.
func (p Path) Name() string {
	if len(p.Segments) == 0 {
		return ""
	}

	return p.Segments[len(p.Segments)-1]
}

// Parent returns the path one level up, or an empty string for roots.
func (p Path) Parent() string {
	if len(p.Segments) <= 1 {
		return ""
	}

	return strings.Join(p.Segments[:len(p.Segments)-1], Separator)
}

// Prefix returns the first n segments joined. n is clamped to the path length.
func (p Path) Prefix(n int) string {
	n = max(0, min(n, len(p.Segments)))

	return strings.Join(p.Segments[:n], Separator)
}

// ParentOf returns everything before the last separator without validating
// the path. Malformed introspection output must never stop a tree build, so
// the builder uses this instead of Parse.
func ParentOf(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return ""
	}

	return path[:idx]
}

// NameOf returns everything after the last separator.
func NameOf(path string) string {
	return path[strings.LastIndex(path, Separator)+1:]
}

// DepthOf counts separators in path.
func DepthOf(path string) int {
	return strings.Count(path, Separator)
}

// isValidIdent checks if s is a valid field identifier.
func isValidIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
