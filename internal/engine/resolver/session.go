package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const outcomeOK = "ok"

// session is the private state of one Resolve call.
type session struct {
	r    *Resolver
	sink domain.EventSink

	// mu guards visited and result.
	mu      sync.Mutex
	visited map[string]struct{}
	result  *domain.VirtualFileSet
}

// fetched is what one frontier member produced during a round.
type fetched struct {
	record  *domain.ComponentRecord
	content string
	refs    []string
	err     error
}

func newSession(r *Resolver, sink domain.EventSink) *session {
	return &session{
		r:       r,
		sink:    sink,
		visited: make(map[string]struct{}),
		result:  domain.NewVirtualFileSet(r.baseline.Dependencies, r.baseline.DevDependencies),
	}
}

// seed places caller supplied files, marks the entry visited and returns the first frontier:
// the entry's references followed by the explicit references.
func (s *session) seed(req domain.Request) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p, content := range req.Scaffold {
		s.result.Files[p] = content
	}
	s.result.Files[s.r.conventions.EntryPath] = req.EntrySource
	s.visited[req.EntryID] = struct{}{}

	frontier := s.r.scanner.Scan(req.EntrySource, req.EntryID)
	return append(frontier, req.References...)
}

// claim marks every unvisited identifier of the frontier as visited and returns them
// in frontier order. Identifiers already visited, repeated or empty are dropped.
func (s *session) claim(round int, frontier []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimed := make([]string, 0, len(frontier))
	for _, id := range frontier {
		if id == "" {
			continue
		}
		if _, seen := s.visited[id]; seen {
			continue
		}
		s.visited[id] = struct{}{}
		claimed = append(claimed, id)
	}
	if len(claimed) > 0 {
		s.result.Rounds = round
	}
	return claimed
}

// expand fetches every claimable member of the frontier concurrently, waits for all of them,
// then folds the results in frontier order and returns the next frontier.
func (s *session) expand(ctx context.Context, round int, frontier []string) []string {
	claimed := s.claim(round, frontier)
	if len(claimed) == 0 {
		return nil
	}

	s.emit(domain.Event{Kind: domain.EventRoundStarted, Round: round, Frontier: claimed})

	ctx, span := s.r.tracer.Start(ctx, "resolve.round", ports.WithAttribute("round", round))
	defer span.End()
	span.SetAttribute("frontier", len(claimed))

	results := make([]fetched, len(claimed))

	var g errgroup.Group
	g.SetLimit(s.r.concurrency)
	for i, id := range claimed {
		g.Go(func() error {
			results[i] = s.fetch(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	var next []string
	for i, id := range claimed {
		next = append(next, s.fold(round, id, results[i])...)
	}
	return next
}

// fetch retrieves one component and prepares its rewritten content and references.
// It touches no session state and runs concurrently with its siblings.
func (s *session) fetch(ctx context.Context, id string) fetched {
	ctx, span := s.r.tracer.Start(ctx, "registry.fetch", ports.WithAttribute("component", id))
	defer span.End()

	start := time.Now()
	record, err := s.r.registry.Fetch(ctx, id)

	var src string
	if err == nil {
		var ok bool
		if src, ok = record.Source(); !ok {
			err = zerr.Wrap(domain.ErrEmptySource, id)
		}
	}

	if err != nil {
		span.RecordError(err)
		s.r.metrics.ObserveFetch(string(domain.ClassifyFetchError(err)), time.Since(start))
		return fetched{err: err}
	}

	content := s.r.rewriter.Rewrite(src)
	refs := s.r.scanner.Scan(content, id)

	span.SetAttribute("references", len(refs))
	s.r.metrics.ObserveFetch(outcomeOK, time.Since(start))

	return fetched{record: record, content: content, refs: refs}
}

// fold merges one fetch result into the file set and returns its references.
func (s *session) fold(round int, id string, f fetched) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.err != nil {
		s.skip(round, id, domain.ClassifyFetchError(f.err), f.err.Error())
		return nil
	}

	path := s.r.conventions.ComponentPath(id)
	if _, taken := s.result.Files[path]; taken {
		s.skip(round, id, domain.WarningInvalid, fmt.Sprintf("path %s is already taken by a caller supplied file", path))
		return nil
	}

	s.result.Files[path] = f.content
	s.result.Components = append(s.result.Components, id)
	s.merge(id, domain.ScopeRuntime, s.result.Dependencies, f.record.Dependencies)
	s.merge(id, domain.ScopeDev, s.result.DevDependencies, f.record.DevDependencies)

	s.emit(domain.Event{Kind: domain.EventComponentResolved, Round: round, Component: id, Path: path})

	return f.refs
}

// skip records a component that contributes nothing. Callers must hold mu.
func (s *session) skip(round int, id string, kind domain.WarningKind, msg string) {
	w := domain.Warning{Component: id, Kind: kind, Message: msg}
	s.result.Warnings = append(s.result.Warnings, w)
	if cw, ok := s.r.logger.(ports.ComponentWarner); ok {
		cw.WarnComponent(w)
	} else {
		s.r.logger.Warn(fmt.Sprintf("skipping component %s (%s): %s", id, kind, msg))
	}
	s.emit(domain.Event{Kind: domain.EventComponentSkipped, Round: round, Component: id, Warning: &w})
}

// merge folds src into dst and records the overwrites as conflicts. Callers must hold mu.
func (s *session) merge(component string, scope domain.Scope, dst, src domain.Manifest) {
	for _, c := range dst.Merge(src) {
		c.Component = component
		c.Scope = scope
		s.result.Conflicts = append(s.result.Conflicts, c)
	}
}

// finish applies the explicit caller dependencies and hands over the result.
func (s *session) finish(req domain.Request) *domain.VirtualFileSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.merge(req.EntryID, domain.ScopeRuntime, s.result.Dependencies, req.Dependencies)
	s.emit(domain.Event{Kind: domain.EventResolutionFinished, Round: s.result.Rounds})

	return s.result
}

func (s *session) emit(e domain.Event) {
	if s.sink != nil {
		s.sink(e)
	}
}
