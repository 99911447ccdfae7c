package domain

import (
	"path"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

const (
	// DefaultCanonicalPrefix is the import prefix every resolved component is addressed by.
	DefaultCanonicalPrefix = "@/components/"

	// DefaultRawPattern matches the style-qualified prefix emitted by registry builds.
	DefaultRawPattern = `@/registry/[A-Za-z0-9_-]+/`

	// DefaultReservedSegment marks standard primitives that are materialized by the sandbox itself.
	DefaultReservedSegment = "ui"

	// DefaultComponentsDir is the virtual directory resolved components are stored under.
	DefaultComponentsDir = "/components"

	// DefaultExtension is the file extension given to resolved components.
	DefaultExtension = ".tsx"

	// DefaultEntryPath is the virtual path of the entry component.
	DefaultEntryPath = "/App.tsx"
)

// Conventions describes the import and path scheme shared by the scanner, rewriter and file set.
type Conventions struct {
	CanonicalPrefix string
	RawPattern      string
	ReservedSegment string
	ComponentsDir   string
	Extension       string
	EntryPath       string
}

// DefaultConventions returns the stock import scheme.
func DefaultConventions() Conventions {
	return Conventions{
		CanonicalPrefix: DefaultCanonicalPrefix,
		RawPattern:      DefaultRawPattern,
		ReservedSegment: DefaultReservedSegment,
		ComponentsDir:   DefaultComponentsDir,
		Extension:       DefaultExtension,
		EntryPath:       DefaultEntryPath,
	}
}

// ComponentPath returns the canonical virtual path for a component identifier.
func (c Conventions) ComponentPath(id string) string {
	return path.Join("/", c.ComponentsDir, id+c.Extension)
}

// Validate checks that the conventions are usable and that rewriting stays idempotent.
func (c Conventions) Validate() error {
	if c.CanonicalPrefix == "" {
		return zerr.With(ErrInvalidConfig, "field", "conventions.canonical_prefix")
	}
	if c.ComponentsDir == "" {
		return zerr.With(ErrInvalidConfig, "field", "conventions.components_dir")
	}
	if c.EntryPath == "" || !strings.HasPrefix(c.EntryPath, "/") {
		return zerr.With(ErrInvalidConfig, "field", "conventions.entry_path")
	}

	raw, err := regexp.Compile(c.RawPattern)
	if err != nil {
		return zerr.With(zerr.Wrap(err, ErrInvalidRawPattern.Error()), "pattern", c.RawPattern)
	}
	if raw.MatchString(c.CanonicalPrefix) {
		return zerr.With(ErrNonIdempotentConventions, "canonical_prefix", c.CanonicalPrefix)
	}

	return nil
}
