package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stitch/internal/adapters/config"    //nolint:depguard // Wired in resolver node
	"go.trai.ch/stitch/internal/adapters/logger"    //nolint:depguard // Wired in resolver node
	"go.trai.ch/stitch/internal/adapters/metrics"   //nolint:depguard // Wired in resolver node
	"go.trai.ch/stitch/internal/adapters/registry"  //nolint:depguard // Wired in resolver node
	"go.trai.ch/stitch/internal/adapters/telemetry" //nolint:depguard // Wired in resolver node
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			registry.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			client, err := graft.Dep[ports.RegistryClient](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(client, tracer, m, log, cfg), nil
		},
	})
}
