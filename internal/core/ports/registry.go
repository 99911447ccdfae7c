package ports

import (
	"context"

	"go.trai.ch/stitch/internal/core/domain"
)

//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks

// RegistryClient is a keyed lookup of component records.
// Implementations must be safe for concurrent use.
type RegistryClient interface {
	// Fetch returns the record for id. A missing record yields an error matching
	// domain.ErrComponentNotFound; any other error is treated as a transport failure.
	Fetch(ctx context.Context, id string) (*domain.ComponentRecord, error)
}
