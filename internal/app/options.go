package app

import (
	"embed"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/zerr"
)

//go:embed scaffold
var scaffoldFS embed.FS

// defaultScaffold maps the virtual paths of the standard project files to their embedded source.
var defaultScaffold = map[string]string{
	"/tsconfig.json": "scaffold/tsconfig.json",
	"/lib/utils.ts":  "scaffold/utils.ts",
}

// ResolveOptions configures the Resolve and Watch methods.
type ResolveOptions struct {
	// EntryFile is the path of the entry source on disk.
	EntryFile string
	// EntryID overrides the entry identifier. It defaults to the lower-cased file name
	// without its extension.
	EntryID string
	// References are component identifiers fetched even when the entry does not import them.
	References []string
	// Dependencies are "pkg@version" references that override every merged manifest entry.
	Dependencies []string
	// Scaffold holds "virtual-path=file" pairs placed into the file set before resolution.
	Scaffold []string
	// Bare omits the default tsconfig.json and lib/utils.ts scaffold files.
	Bare bool
	// OutDir materializes the result into a directory instead of printing JSON.
	OutDir string
	// Quiet suppresses the summary.
	Quiet bool
}

func (o ResolveOptions) entryID() string {
	if o.EntryID != "" {
		return o.EntryID
	}
	base := filepath.Base(o.EntryFile)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// watchedFiles returns every file on disk that feeds the request.
func (o ResolveOptions) watchedFiles() []string {
	files := []string{o.EntryFile}
	for _, spec := range o.Scaffold {
		if _, file, ok := strings.Cut(spec, "="); ok && file != "" {
			files = append(files, file)
		}
	}
	return files
}

// request reads the entry and scaffold files and builds the resolution request.
func (o ResolveOptions) request() (domain.Request, error) {
	//nolint:gosec // The entry file is chosen by the user on the command line
	src, err := os.ReadFile(o.EntryFile)
	if err != nil {
		return domain.Request{}, zerr.With(zerr.Wrap(err, domain.ErrEntryReadFailed.Error()), "file", o.EntryFile)
	}

	scaffold, err := readScaffold(o.Scaffold, o.Bare)
	if err != nil {
		return domain.Request{}, err
	}

	return domain.Request{
		EntryID:      o.entryID(),
		EntrySource:  string(src),
		Dependencies: domain.ManifestFromList(o.Dependencies),
		References:   o.References,
		Scaffold:     scaffold,
	}, nil
}

// readScaffold returns the default scaffold unless bare, overlaid with the files named by specs.
func readScaffold(specs []string, bare bool) (map[string]string, error) {
	scaffold := make(map[string]string, len(specs)+len(defaultScaffold))
	if !bare {
		for virtual, name := range defaultScaffold {
			content, err := scaffoldFS.ReadFile(name)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrScaffoldReadFailed.Error()), "file", name)
			}
			scaffold[virtual] = string(content)
		}
	}

	for _, spec := range specs {
		virtual, file, ok := strings.Cut(spec, "=")
		if !ok || virtual == "" || file == "" {
			return nil, zerr.With(domain.ErrInvalidScaffoldSpec, "spec", spec)
		}

		//nolint:gosec // Scaffold files are chosen by the user on the command line
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrScaffoldReadFailed.Error()), "file", file)
		}

		if !strings.HasPrefix(virtual, "/") {
			virtual = "/" + virtual
		}
		scaffold[virtual] = string(content)
	}
	return scaffold, nil
}
