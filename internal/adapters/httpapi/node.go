package httpapi

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stitch/internal/adapters/logger"   //nolint:depguard // Wired in httpapi node
	"go.trai.ch/stitch/internal/adapters/metrics"  //nolint:depguard // Wired in httpapi node
	"go.trai.ch/stitch/internal/adapters/registry" //nolint:depguard // Wired in httpapi node
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/stitch/internal/engine/resolver"
)

// NodeID is the unique identifier for the HTTP API Graft node.
const NodeID graft.ID = "adapter.httpapi"

func init() {
	graft.Register(graft.Node[*Server]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			resolver.NodeID,
			registry.NodeID,
			metrics.RecorderNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Server, error) {
			res, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}
			client, err := graft.Dep[ports.RegistryClient](ctx)
			if err != nil {
				return nil, err
			}
			rec, err := graft.Dep[*metrics.Recorder](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(ResolveWith(res), client, rec, log), nil
		},
	})
}

// ResolveWith adapts a Resolver to a ResolveFunc.
func ResolveWith(r *resolver.Resolver) ResolveFunc {
	return func(ctx context.Context, req domain.Request, sink domain.EventSink) (*domain.VirtualFileSet, error) {
		if sink == nil {
			return r.Resolve(ctx, req)
		}
		return r.Resolve(ctx, req, resolver.WithEventSink(sink))
	}
}
