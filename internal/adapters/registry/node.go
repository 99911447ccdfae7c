package registry

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/stitch/internal/adapters/config" //nolint:depguard // Wired in registry node
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
)

// NodeID is the unique identifier for the registry client Graft node.
const NodeID graft.ID = "adapter.registry"

func init() {
	graft.Register(graft.Node[ports.RegistryClient]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.RegistryClient, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return FromConfig(cfg.Registry)
		},
	})
}

// FromConfig builds the registry backend selected by cfg, wrapped in a Cached decorator.
func FromConfig(cfg domain.RegistryConfig) (*Cached, error) {
	var (
		backend   ports.RegistryClient
		namespace string
	)

	switch cfg.Kind {
	case domain.RegistryBundled:
		fsys, err := NewBundled()
		if err != nil {
			return nil, err
		}
		backend, namespace = fsys, "bundled"
	case domain.RegistryFilesystem:
		fsys, err := NewFilesystem(os.DirFS(cfg.Path))
		if err != nil {
			return nil, err
		}
		backend, namespace = fsys, "filesystem:"+cfg.Path
	case domain.RegistryHTTP:
		backend, namespace = NewHTTP(cfg.URL, cfg.Timeout), "http:"+cfg.URL
	case domain.RegistryS3:
		client := NewS3Client(cfg.S3)
		backend, namespace = NewS3(client, cfg.S3.Bucket, cfg.S3.Prefix), "s3:"+cfg.S3.Bucket+"/"+cfg.S3.Prefix
	default:
		return nil, domain.ErrUnknownRegistryKind
	}

	var opts []CacheOption
	if cfg.Kind != domain.RegistryBundled {
		opts = append(opts, WithMemoTTL(cfg.Cache.TTL))
		if cfg.Cache.Enabled {
			opts = append(opts, WithDiskCache(cfg.Cache.Dir, namespace, cfg.Cache.TTL))
		}
	}
	return NewCached(backend, opts...)
}
