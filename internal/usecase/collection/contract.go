package collection

import (
	"context"

	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
)

// Store defines the collection operations of the store client.
type Store interface {
	CreateCollection(ctx context.Context, name string, metadata map[string]any, dim int) (domcol.Collection, error)
	GetCollection(ctx context.Context, name string) (domcol.Collection, error)
	ListCollections(ctx context.Context) ([]domcol.Summary, error)
	DeleteCollection(ctx context.Context, name string) error
	DeleteAllCollections(ctx context.Context) error
	GetCollectionMetadata(ctx context.Context, name string) (domcol.Descriptor, error)
}
