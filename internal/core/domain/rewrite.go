package domain

import "regexp"

// Rewriter normalizes raw registry import prefixes to the canonical prefix.
type Rewriter struct {
	raw       *regexp.Regexp
	canonical string
}

// NewRewriter compiles a Rewriter from the given conventions.
// Conventions are expected to have passed Validate.
func NewRewriter(c Conventions) *Rewriter {
	return &Rewriter{
		raw:       regexp.MustCompile(c.RawPattern),
		canonical: c.CanonicalPrefix,
	}
}

// Rewrite replaces every raw registry prefix in src with the canonical prefix.
// Replacement repeats until no raw prefix remains, since the canonical prefix can
// complete a new raw match with the text that follows it. It is pure and idempotent.
func (r *Rewriter) Rewrite(src string) string {
	out := src
	for range len(src) + 1 {
		next := r.raw.ReplaceAllLiteralString(out, r.canonical)
		if next == out {
			return out
		}
		out = next
	}
	return out
}
