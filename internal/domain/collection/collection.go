package collection

import (
	"fmt"
	"maps"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SpaceKey is the metadata key that selects the distance metric.
const SpaceKey = "hnsw:space"

// Space is the distance metric used to rank query results.
type Space string

const (
	// SpaceL2 is squared Euclidean distance (default).
	SpaceL2 Space = "l2"
	// SpaceCosine is cosine distance (1 - cosine similarity).
	SpaceCosine Space = "cosine"
	// SpaceIP is inner product distance (1 - dot product).
	SpaceIP Space = "ip"
)

// IsValid checks if the space is supported.
func (s Space) IsValid() bool {
	return s == SpaceL2 || s == SpaceCosine || s == SpaceIP
}

// DefaultMetadata is attached to collections created without metadata.
func DefaultMetadata() map[string]any {
	return map[string]any{"_type": "embedding"}
}

// Collection is the collection aggregate (immutable value object).
type Collection struct {
	id        string
	name      string
	metadata  map[string]any
	dimension int
	createdAt int64
}

// ValidateName checks a collection name: ^[a-zA-Z0-9_-]+$, 1-64 chars.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates and creates a Collection.
// Nil or empty metadata gets DefaultMetadata. dimension 0 means "fixed by the first insert".
func New(name string, metadata map[string]any, dimension int) (Collection, error) {
	if err := ValidateName(name); err != nil {
		return Collection{}, err
	}
	if dimension < 0 {
		return Collection{}, fmt.Errorf("dimension must not be negative")
	}
	if len(metadata) == 0 {
		metadata = DefaultMetadata()
	}
	if raw, ok := metadata[SpaceKey]; ok {
		s, isStr := raw.(string)
		if !isStr || !Space(s).IsValid() {
			return Collection{}, fmt.Errorf("%s must be one of l2, cosine, ip", SpaceKey)
		}
	}

	return Collection{
		id:        uuid.NewString(),
		name:      name,
		metadata:  maps.Clone(metadata),
		dimension: dimension,
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(id, name string, metadata map[string]any, dimension int, createdAt int64) Collection {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Collection{
		id:        id,
		name:      name,
		metadata:  metadata,
		dimension: dimension,
		createdAt: createdAt,
	}
}

// ID returns the collection identifier.
func (c Collection) ID() string { return c.id }

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Metadata returns the collection metadata.
func (c Collection) Metadata() map[string]any { return c.metadata }

// Dimension returns the embedding dimensionality, 0 if not fixed yet.
func (c Collection) Dimension() int { return c.dimension }

// HasDimension reports whether the dimensionality is fixed.
func (c Collection) HasDimension() bool { return c.dimension > 0 }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// Space returns the distance metric from metadata, SpaceL2 if unset.
func (c Collection) Space() Space {
	if s, ok := c.metadata[SpaceKey].(string); ok && Space(s).IsValid() {
		return Space(s)
	}
	return SpaceL2
}

// WithDimension returns a copy with the dimensionality fixed.
func (c Collection) WithDimension(dim int) Collection {
	c.dimension = dim
	return c
}

// Summary is a collection listing entry.
type Summary struct {
	Name          string         `json:"name"`
	Metadata      map[string]any `json:"metadata"`
	DocumentCount int            `json:"document_count"`
}

// Descriptor is the store-level description of a collection.
type Descriptor struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata"`
	Dimension *int           `json:"dimension"`
	Space     Space          `json:"space"`
	CreatedAt int64          `json:"created_at"`
	Backend   string         `json:"backend"`
}

// Describe builds the descriptor for a collection stored in backend.
func (c Collection) Describe(backend string) Descriptor {
	d := Descriptor{
		ID:        c.id,
		Name:      c.name,
		Metadata:  c.metadata,
		Space:     c.Space(),
		CreatedAt: c.createdAt,
		Backend:   backend,
	}
	if c.HasDimension() {
		dim := c.dimension
		d.Dimension = &dim
	}
	return d
}
