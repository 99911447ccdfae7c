// Package resolver expands an entry component into a complete virtual file set.
package resolver

import (
	"context"
	"runtime"
	"strings"
	"time"

	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver discovers, fetches and merges the components an entry transitively references.
// A Resolver holds no per-request state and may serve concurrent Resolve calls.
type Resolver struct {
	registry ports.RegistryClient
	tracer   ports.Tracer
	metrics  ports.Metrics
	logger   ports.Logger

	conventions domain.Conventions
	baseline    domain.Baseline
	scanner     *domain.Scanner
	rewriter    *domain.Rewriter
	concurrency int
}

// New creates a Resolver over the given registry.
// cfg is expected to have passed Validate.
func New(
	registry ports.RegistryClient,
	tracer ports.Tracer,
	metrics ports.Metrics,
	logger ports.Logger,
	cfg *domain.Config,
) *Resolver {
	concurrency := cfg.Resolver.Concurrency
	if concurrency < 1 {
		concurrency = runtime.NumCPU()
	}

	return &Resolver{
		registry:    registry,
		tracer:      tracer,
		metrics:     metrics,
		logger:      logger,
		conventions: cfg.Conventions,
		baseline:    cfg.Baseline,
		scanner:     domain.NewScanner(cfg.Conventions),
		rewriter:    domain.NewRewriter(cfg.Conventions),
		concurrency: concurrency,
	}
}

// Option configures a single Resolve call.
type Option func(*options)

type options struct {
	sink domain.EventSink
}

// WithEventSink streams progress events of the resolution to sink.
func WithEventSink(sink domain.EventSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// Resolve expands req breadth first until no unvisited references remain.
//
// Registry failures never fail the call; they are recorded as warnings on the result.
// An error is returned only for a blank entry id or when ctx is done before a round starts.
func (r *Resolver) Resolve(ctx context.Context, req domain.Request, opts ...Option) (*domain.VirtualFileSet, error) {
	if strings.TrimSpace(req.EntryID) == "" {
		return nil, domain.ErrEmptyEntryID
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "resolve", ports.WithAttribute("entry", req.EntryID))
	defer span.End()

	s := newSession(r, o.sink)
	frontier := s.seed(req)

	for round := 1; len(frontier) > 0; round++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return nil, zerr.With(zerr.Wrap(err, "resolution cancelled"), "round", round)
		}
		frontier = s.expand(ctx, round, frontier)
	}

	result := s.finish(req)

	span.SetAttribute("components", len(result.Components))
	span.SetAttribute("warnings", len(result.Warnings))
	span.SetAttribute("rounds", result.Rounds)
	r.metrics.ObserveResolution(len(result.Components), len(result.Warnings), result.Rounds, time.Since(start))

	return result, nil
}
