package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stitch/internal/core/domain"
)

func TestParseDependency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want domain.Dependency
	}{
		{raw: "foo", want: domain.Dependency{Name: "foo", Version: "latest"}},
		{raw: "foo@1.2.3", want: domain.Dependency{Name: "foo", Version: "1.2.3"}},
		{raw: "@scope/foo@2.0.0", want: domain.Dependency{Name: "@scope/foo", Version: "2.0.0"}},
		{raw: "@scope/foo", want: domain.Dependency{Name: "@scope/foo", Version: "latest"}},
		{raw: "foo@", want: domain.Dependency{Name: "foo", Version: "latest"}},
		{raw: "foo@^1.0.0", want: domain.Dependency{Name: "foo", Version: "^1.0.0"}},
		{raw: "  lucide-react@0.300.0 ", want: domain.Dependency{Name: "lucide-react", Version: "0.300.0"}},
		{raw: "@", want: domain.Dependency{Name: "@", Version: "latest"}},
		{raw: "", want: domain.Dependency{Name: "", Version: "latest"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, domain.ParseDependency(tt.raw))
		})
	}
}

func TestDependency_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "@scope/foo@2.0.0", domain.ParseDependency("@scope/foo@2.0.0").String())
	assert.Equal(t, "foo@latest", domain.ParseDependency("foo").String())
}

func TestManifestFromList(t *testing.T) {
	t.Parallel()

	m := domain.ManifestFromList([]string{"a@1.0.0", "b", "", "a@2.0.0"})
	assert.Equal(t, domain.Manifest{"a": "2.0.0", "b": "latest"}, m)
}

func TestManifest_Merge_LastWriteWins(t *testing.T) {
	t.Parallel()

	acc := domain.Manifest{"x": "1.0.0", "y": "^2.0.0"}
	conflicts := acc.Merge(domain.Manifest{"x": "2.0.0", "z": "3.0.0"})

	assert.Equal(t, domain.Manifest{"x": "2.0.0", "y": "^2.0.0", "z": "3.0.0"}, acc)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "x", conflicts[0].Package)
	assert.Equal(t, "1.0.0", conflicts[0].Previous)
	assert.Equal(t, "2.0.0", conflicts[0].Next)
	assert.False(t, conflicts[0].Compatible)
}

func TestManifest_Merge_SameValueIsNotAConflict(t *testing.T) {
	t.Parallel()

	acc := domain.Manifest{"x": "1.0.0"}
	conflicts := acc.Merge(domain.Manifest{"x": "1.0.0"})

	assert.Empty(t, conflicts)
	assert.Equal(t, domain.Manifest{"x": "1.0.0"}, acc)
}

func TestManifest_Merge_ConflictsSortedByName(t *testing.T) {
	t.Parallel()

	acc := domain.Manifest{"b": "1", "a": "1", "c": "1"}
	conflicts := acc.Merge(domain.Manifest{"c": "2", "a": "2", "b": "2"})

	require.Len(t, conflicts, 3)
	assert.Equal(t, "a", conflicts[0].Package)
	assert.Equal(t, "b", conflicts[1].Package)
	assert.Equal(t, "c", conflicts[2].Package)
}

func TestManifest_Clone(t *testing.T) {
	t.Parallel()

	var nilManifest domain.Manifest
	clone := nilManifest.Clone()
	require.NotNil(t, clone)
	assert.Empty(t, clone)

	orig := domain.Manifest{"a": "1"}
	cp := orig.Clone()
	cp["a"] = "2"
	assert.Equal(t, "1", orig["a"])
}

func TestSatisfies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		prev string
		next string
		want bool
	}{
		{name: "caret admits minor bump", prev: "^18.2.0", next: "18.3.1", want: true},
		{name: "caret range against caret", prev: "^18.2.0", next: "^18.3.0", want: true},
		{name: "major bump", prev: "^18.2.0", next: "19.0.0", want: false},
		{name: "exact match", prev: "1.2.3", next: "1.2.3", want: true},
		{name: "latest is unknown", prev: "latest", next: "1.0.0", want: false},
		{name: "to latest is unknown", prev: "^1.0.0", next: "latest", want: false},
		{name: "unparsable constraint", prev: "not a version", next: "1.0.0", want: false},
		{name: "unparsable version", prev: "^1.0.0", next: "next", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, domain.Satisfies(tt.prev, tt.next))
		})
	}
}
