// Package fs materializes virtual file sets on the local file system.
package fs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.OutputWriter = (*Writer)(nil)

// DefaultPackageName is the package name written into generated manifests.
const DefaultPackageName = "stitch-app"

// packageManifest is the generated package.json.
type packageManifest struct {
	Name            string          `json:"name"`
	Private         bool            `json:"private"`
	Dependencies    domain.Manifest `json:"dependencies"`
	DevDependencies domain.Manifest `json:"devDependencies"`
}

// Writer implements ports.OutputWriter. All writes go through an os.Root so that
// no virtual path can leave the output directory.
type Writer struct {
	packageName string
}

// NewWriter creates a Writer that names generated manifests packageName.
func NewWriter(packageName string) *Writer {
	if packageName == "" {
		packageName = DefaultPackageName
	}
	return &Writer{packageName: packageName}
}

// Write places every file of set below dir. A package.json is generated from the merged
// manifests unless the set already carries one.
func (w *Writer) Write(dir string, set *domain.VirtualFileSet) ([]string, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "dir", dir)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "dir", dir)
	}
	defer func() { _ = root.Close() }()

	files := make(map[string][]byte, len(set.Files)+1)
	for _, p := range set.Paths() {
		rel, err := localPath(p)
		if err != nil {
			return nil, err
		}
		files[rel] = []byte(set.Files[p])
	}

	if _, ok := files[domain.PackageManifestFile]; !ok {
		data, err := w.manifest(set)
		if err != nil {
			return nil, err
		}
		files[domain.PackageManifestFile] = data
	}

	written := make([]string, 0, len(files))
	for rel, data := range files {
		if parent := filepath.Dir(rel); parent != "." {
			if err := root.MkdirAll(parent, domain.DirPerm); err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", rel)
			}
		}
		if err := root.WriteFile(rel, data, domain.FilePerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", rel)
		}
		written = append(written, filepath.ToSlash(rel))
	}

	slices.Sort(written)
	return written, nil
}

// manifest renders the package.json for set. encoding/json sorts map keys.
func (w *Writer) manifest(set *domain.VirtualFileSet) ([]byte, error) {
	m := packageManifest{
		Name:            w.packageName,
		Private:         true,
		Dependencies:    set.Dependencies.Clone(),
		DevDependencies: set.DevDependencies.Clone(),
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrOutputWriteFailed.Error())
	}
	return append(data, '\n'), nil
}

// localPath converts a virtual path to a path relative to the output directory.
func localPath(virtual string) (string, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(virtual, "/"))
	if !filepath.IsLocal(rel) {
		return "", zerr.With(zerr.Wrap(domain.ErrOutputPathOutsideRoot, "invalid virtual path"), "path", virtual)
	}
	return filepath.Clean(rel), nil
}
