package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stitch/internal/core/ports"
)

// WriterNodeID is the unique identifier for the output writer Graft node.
const WriterNodeID graft.ID = "adapter.fs.writer"

func init() {
	graft.Register(graft.Node[ports.OutputWriter]{
		ID:        WriterNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.OutputWriter, error) {
			return NewWriter(DefaultPackageName), nil
		},
	})
}
