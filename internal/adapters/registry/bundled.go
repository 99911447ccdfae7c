package registry

import (
	"embed"
	"io/fs"
)

//go:embed bundled/*.json bundled/*.yaml
var bundledFS embed.FS

// NewBundled returns a Filesystem registry over the sample components compiled into the binary.
func NewBundled() (*Filesystem, error) {
	root, err := fs.Sub(bundledFS, "bundled")
	if err != nil {
		return nil, err
	}
	return NewFilesystem(root)
}
