package ports

import "go.trai.ch/stitch/internal/core/domain"

//go:generate mockgen -source=output.go -destination=mocks/mock_output.go -package=mocks

// OutputWriter materializes a virtual file set on disk.
type OutputWriter interface {
	// Write places every file of set below dir together with a generated package manifest.
	// It returns the written paths relative to dir, sorted.
	Write(dir string, set *domain.VirtualFileSet) ([]string, error)
}
