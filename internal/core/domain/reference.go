package domain

import (
	"regexp"
)

// Scanner extracts component identifiers referenced through the canonical import prefix.
type Scanner struct {
	pattern  *regexp.Regexp
	reserved string
}

// NewScanner builds a Scanner for the given conventions.
//
// A reference is the canonical prefix followed by a single path segment and then a quote,
// backtick, whitespace or the end of the text. Nested paths never match, and the reserved
// segment is treated as already materialized.
func NewScanner(c Conventions) *Scanner {
	expr := regexp.QuoteMeta(c.CanonicalPrefix) + "([^\\s\"'`/]+)(?:[\"'`\\s]|$)"
	return &Scanner{
		pattern:  regexp.MustCompile(expr),
		reserved: c.ReservedSegment,
	}
}

// Scan returns the distinct identifiers referenced by src in order of first appearance,
// excluding self. It returns an empty slice when there are none.
func (s *Scanner) Scan(src, self string) []string {
	matches := s.pattern.FindAllStringSubmatch(src, -1)

	ids := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		id := m[1]
		if id == self || id == s.reserved {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}
