// Package app implements the application layer for stitch.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"

	"go.trai.ch/stitch/internal/adapters/registry" //nolint:depguard // Record encoding for show
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/stitch/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// Resolver expands resolution requests into virtual file sets.
type Resolver interface {
	Resolve(ctx context.Context, req domain.Request, opts ...resolver.Option) (*domain.VirtualFileSet, error)
}

// Server serves the HTTP API until its context ends.
type Server interface {
	ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error
}

// App represents the main application logic.
type App struct {
	resolver Resolver
	registry ports.RegistryClient
	writer   ports.OutputWriter
	watcher  ports.Watcher
	server   Server
	logger   ports.Logger
	cfg      *domain.Config

	stdout io.Writer
	stderr io.Writer
}

// New creates a new App instance writing to os.Stdout and os.Stderr.
func New(
	res Resolver,
	client ports.RegistryClient,
	writer ports.OutputWriter,
	watcher ports.Watcher,
	server Server,
	log ports.Logger,
	cfg *domain.Config,
) *App {
	return &App{
		resolver: res,
		registry: client,
		writer:   writer,
		watcher:  watcher,
		server:   server,
		logger:   log,
		cfg:      cfg,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
}

// WithOutput redirects the result and summary streams.
// This is primarily used for testing.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// Resolve resolves the entry file once and emits the result.
func (a *App) Resolve(ctx context.Context, opts ResolveOptions) error {
	set, err := a.resolveOnce(ctx, opts)
	if err != nil {
		return err
	}
	return a.emit(set, opts)
}

// Show prints the registry record of one component.
func (a *App) Show(ctx context.Context, id string) error {
	rec, err := a.registry.Fetch(ctx, id)
	if err != nil {
		return err
	}

	data, err := registry.EncodeRecord(rec)
	if err != nil {
		return err
	}

	_, err = a.stdout.Write(append(data, '\n'))
	return err
}

// Serve runs the HTTP API on addr, or on the configured address when addr is empty,
// until ctx is cancelled.
func (a *App) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	return a.server.ListenAndServe(ctx, addr, func(bound net.Addr) {
		a.logger.Info("listening on http://" + bound.String())
	})
}

func (a *App) resolveOnce(ctx context.Context, opts ResolveOptions) (*domain.VirtualFileSet, error) {
	req, err := opts.request()
	if err != nil {
		return nil, err
	}
	return a.resolver.Resolve(ctx, req)
}

// emit writes the file set to the output directory or as JSON to stdout, then reports it.
func (a *App) emit(set *domain.VirtualFileSet, opts ResolveOptions) error {
	if opts.OutDir != "" {
		written, err := a.writer.Write(opts.OutDir, set)
		if err != nil {
			return err
		}
		a.logger.Info(fmt.Sprintf("wrote %d files to %s", len(written), opts.OutDir))
	} else if err := writeJSON(a.stdout, set); err != nil {
		return zerr.Wrap(err, domain.ErrOutputWriteFailed.Error())
	}

	a.reportConflicts(set)

	if !opts.Quiet {
		writeSummary(a.stderr, opts.entryID(), set)
	}
	return nil
}

func (a *App) reportConflicts(set *domain.VirtualFileSet) {
	for _, c := range set.Conflicts {
		msg := fmt.Sprintf("%s %s: %s replaced %s with %s", c.Scope, c.Package, c.Component, c.Previous, c.Next)
		if c.Compatible {
			a.logger.Info(msg)
			continue
		}
		a.logger.Warn(msg + " (incompatible)")
	}
}

// writeJSON renders the file set as indented JSON without HTML escaping.
func writeJSON(w io.Writer, set *domain.VirtualFileSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(set)
}
