package domain

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// VirtualFileSet is the result of a resolution: a flat virtual file tree plus merged manifests.
type VirtualFileSet struct {
	// Files maps canonical virtual paths to final source text.
	Files map[string]string `json:"files"`
	// Dependencies is the merged runtime manifest.
	Dependencies Manifest `json:"dependencies"`
	// DevDependencies is the merged development manifest.
	DevDependencies Manifest `json:"devDependencies"`
	// Components lists resolved component identifiers in resolution order.
	Components []string `json:"components"`
	// Warnings lists components that were skipped.
	Warnings []Warning `json:"warnings,omitempty"`
	// Conflicts lists manifest overwrites with differing constraints.
	Conflicts []Conflict `json:"conflicts,omitempty"`
	// Rounds is the number of expansion rounds that fetched at least one component.
	Rounds int `json:"rounds"`
}

// NewVirtualFileSet returns an empty file set whose manifests are seeded with copies of the baselines.
func NewVirtualFileSet(baseline, devBaseline Manifest) *VirtualFileSet {
	return &VirtualFileSet{
		Files:           make(map[string]string),
		Dependencies:    baseline.Clone(),
		DevDependencies: devBaseline.Clone(),
		Components:      []string{},
	}
}

// Paths returns the virtual paths of all files in lexical order.
func (v *VirtualFileSet) Paths() []string {
	return slices.Sorted(maps.Keys(v.Files))
}

// Digest returns a stable fingerprint of the files and manifests.
// Warnings, conflicts and ordering metadata do not contribute.
func (v *VirtualFileSet) Digest() string {
	h := xxhash.New()

	for _, p := range v.Paths() {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(v.Files[p])
		_, _ = h.Write([]byte{0})
	}

	writeManifest := func(tag string, m Manifest) {
		_, _ = h.WriteString(tag)
		for _, name := range slices.Sorted(maps.Keys(m)) {
			_, _ = h.WriteString(name)
			_, _ = h.Write([]byte{0})
			_, _ = h.WriteString(m[name])
			_, _ = h.Write([]byte{0})
		}
	}
	writeManifest(string(ScopeRuntime), v.Dependencies)
	writeManifest(string(ScopeDev), v.DevDependencies)

	return fmt.Sprintf("%016x", h.Sum64())
}
