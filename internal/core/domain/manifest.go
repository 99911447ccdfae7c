package domain

import (
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// LatestVersion is the version constraint assumed when a dependency names no version.
const LatestVersion = "latest"

// Dependency is a parsed package dependency reference.
type Dependency struct {
	Name    string
	Version string
}

// String returns the dependency in name@version form.
func (d Dependency) String() string {
	return d.Name + "@" + d.Version
}

// ParseDependency splits a raw "name" or "name@version" reference.
// The separator is the last "@" in the string, so scoped names like "@scope/pkg" keep their prefix.
// Input that cannot be split falls back to the whole string as the name at LatestVersion.
func ParseDependency(raw string) Dependency {
	raw = strings.TrimSpace(raw)

	idx := strings.LastIndex(raw, "@")
	if idx <= 0 {
		return Dependency{Name: raw, Version: LatestVersion}
	}

	name, version := raw[:idx], raw[idx+1:]
	if version == "" {
		version = LatestVersion
	}

	return Dependency{Name: name, Version: version}
}

// Manifest maps package names to version constraints.
type Manifest map[string]string

// ManifestFromList builds a manifest from raw dependency references.
// Later references to the same package win.
func ManifestFromList(refs []string) Manifest {
	m := make(Manifest, len(refs))
	for _, ref := range refs {
		dep := ParseDependency(ref)
		if dep.Name == "" {
			continue
		}
		m[dep.Name] = dep.Version
	}
	return m
}

// Clone returns a copy of the manifest. A nil manifest clones to an empty one.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	maps.Copy(out, m)
	return out
}

// Merge folds other into m. The incoming value always wins.
// Every overwrite of an existing key with a different value is reported,
// ordered by package name.
func (m Manifest) Merge(other Manifest) []Conflict {
	var conflicts []Conflict
	for _, name := range slices.Sorted(maps.Keys(other)) {
		next := other[name]
		if prev, ok := m[name]; ok && prev != next {
			conflicts = append(conflicts, Conflict{
				Package:    name,
				Previous:   prev,
				Next:       next,
				Compatible: Satisfies(prev, next),
			})
		}
		m[name] = next
	}
	return conflicts
}

// Conflict records that a merge replaced one version constraint with another.
type Conflict struct {
	Package    string `json:"package"`
	Scope      Scope  `json:"scope"`
	Component  string `json:"component"`
	Previous   string `json:"previous"`
	Next       string `json:"next"`
	Compatible bool   `json:"compatible"`
}

// Scope names the manifest a dependency belongs to.
type Scope string

const (
	// ScopeRuntime is the runtime dependency manifest.
	ScopeRuntime Scope = "dependencies"
	// ScopeDev is the dev dependency manifest.
	ScopeDev Scope = "devDependencies"
)

// Satisfies reports whether the lowest version admitted by next satisfies the constraint prev.
// Anything that is not a parseable semver constraint, including "latest", is reported as false.
func Satisfies(prev, next string) bool {
	if prev == LatestVersion || next == LatestVersion {
		return false
	}

	constraint, err := semver.NewConstraint(prev)
	if err != nil {
		return false
	}

	version, err := semver.NewVersion(strings.TrimLeft(next, "^~=>v "))
	if err != nil {
		return false
	}

	return constraint.Check(version)
}
