package registry

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/zerr"
)

// recordExtensions are tried in order when looking up a record file.
var recordExtensions = []string{".json", ".yaml", ".yml"}

// Filesystem serves records stored as <id>.json, <id>.yaml or <id>.yml files of an fs.FS.
type Filesystem struct {
	root   fs.FS
	ignore *ignore.GitIgnore
}

// NewFilesystem creates a Filesystem registry over root.
// A .registryignore file at the root hides matching records.
func NewFilesystem(root fs.FS) (*Filesystem, error) {
	f := &Filesystem{root: root}

	data, err := fs.ReadFile(root, domain.RegistryIgnoreFile)
	switch {
	case err == nil:
		f.ignore = ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, zerr.With(zerr.Wrap(err, "failed to read registry ignore file"), "file", domain.RegistryIgnoreFile)
	}

	return f, nil
}

// Fetch reads and decodes the record for id.
func (f *Filesystem) Fetch(ctx context.Context, id string) (*domain.ComponentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportFailure(id, err)
	}
	if !validID(id) {
		return nil, notFound(id)
	}

	for _, ext := range recordExtensions {
		name := id + ext
		if f.ignored(name) {
			return nil, notFound(id)
		}

		data, err := fs.ReadFile(f.root, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, transportFailure(id, err)
		}
		return decodeByExt(id, name, data)
	}

	return nil, notFound(id)
}

// List returns the identifiers of every visible record, in lexical order.
func (f *Filesystem) List() ([]string, error) {
	entries, err := fs.ReadDir(f.root, ".")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to list registry")
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || f.ignored(e.Name()) {
			continue
		}
		for _, ext := range recordExtensions {
			id, ok := strings.CutSuffix(e.Name(), ext)
			if !ok || !validID(id) {
				continue
			}
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
			break
		}
	}
	return ids, nil
}

func (f *Filesystem) ignored(name string) bool {
	return f.ignore != nil && f.ignore.MatchesPath(name)
}

// validID rejects identifiers that would escape the registry root.
func validID(id string) bool {
	if id == "" || id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return false
	}
	return fs.ValidPath(id)
}
