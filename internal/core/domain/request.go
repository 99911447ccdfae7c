package domain

import "errors"

// Request describes one top-level resolution.
type Request struct {
	// EntryID is the identifier of the entry component. It is never fetched.
	EntryID string `json:"entryId"`
	// EntrySource is the raw source of the entry component, stored verbatim.
	EntrySource string `json:"entrySource"`
	// Dependencies are explicit package dependencies. They are merged last and take precedence.
	Dependencies Manifest `json:"dependencies,omitempty"`
	// References are explicit registry identifiers resolved alongside the scanned graph.
	References []string `json:"references,omitempty"`
	// Scaffold holds caller supplied files keyed by virtual path, stored unmodified.
	Scaffold map[string]string `json:"scaffold,omitempty"`
}

// WarningKind classifies why a component contributed nothing to a resolution.
type WarningKind string

const (
	// WarningNotFound means the registry has no record for the identifier.
	WarningNotFound WarningKind = "not_found"
	// WarningTransport means the registry could not be reached or failed to answer.
	WarningTransport WarningKind = "transport"
	// WarningInvalid means the record was unusable, for example it had no source.
	WarningInvalid WarningKind = "invalid"
)

// Warning records a component that was skipped during resolution.
type Warning struct {
	Component string      `json:"component"`
	Kind      WarningKind `json:"kind"`
	Message   string      `json:"message"`
}

// ClassifyFetchError maps a registry fetch error to the kind of warning it produces.
// Errors that are neither a missing component nor an unusable record count as transport failures.
func ClassifyFetchError(err error) WarningKind {
	switch {
	case errors.Is(err, ErrComponentNotFound):
		return WarningNotFound
	case errors.Is(err, ErrInvalidRecord), errors.Is(err, ErrEmptySource):
		return WarningInvalid
	default:
		return WarningTransport
	}
}
