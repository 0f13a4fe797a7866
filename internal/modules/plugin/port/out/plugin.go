package out

import (
	"context"

	"staywithme/internal/modules/plugin/domain"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

// Host runs a plugin binary for the duration of one call.
type Host interface {
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	SendText(ctx context.Context, manifest domain.Manifest, message domain.Message) (domain.Receipt, error)
}
