package domain

// ComponentRecord is a registry entry for one component.
// Records are immutable once fetched.
type ComponentRecord struct {
	// Name is the canonical identifier of the component.
	Name string
	// Sources holds the source blocks of the component. Only the first is used.
	Sources []string
	// Dependencies maps runtime package names to version constraints.
	Dependencies Manifest
	// DevDependencies maps development package names to version constraints.
	DevDependencies Manifest
}

// Source returns the first source block of the record.
func (r *ComponentRecord) Source() (string, bool) {
	if r == nil || len(r.Sources) == 0 {
		return "", false
	}
	return r.Sources[0], true
}
