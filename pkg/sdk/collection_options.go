package vecgate

import (
	"maps"

	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
)

// CollectionOption configures collection creation.
type CollectionOption interface {
	applyCollection(*collectionConfig)
}

// collectionOptionFunc adapts a function to the CollectionOption interface.
type collectionOptionFunc func(*collectionConfig)

func (f collectionOptionFunc) applyCollection(c *collectionConfig) { f(c) }

type collectionConfig struct {
	metadata  map[string]any
	dimension int
}

// WithMetadata attaches metadata to the collection. Without it the
// collection gets {"_type": "embedding"}.
func WithMetadata(md map[string]any) CollectionOption {
	return collectionOptionFunc(func(c *collectionConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]any, len(md))
		}
		maps.Copy(c.metadata, md)
	})
}

// WithDimension fixes the embedding dimension up front.
func WithDimension(dim int) CollectionOption {
	return collectionOptionFunc(func(c *collectionConfig) {
		c.dimension = dim
	})
}

// WithSpace selects the distance metric (stored as hnsw:space metadata).
func WithSpace(s Space) CollectionOption {
	return collectionOptionFunc(func(c *collectionConfig) {
		if c.metadata == nil {
			c.metadata = map[string]any{}
		}
		c.metadata[domcol.SpaceKey] = string(s)
	})
}
