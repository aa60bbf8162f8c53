package collection

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecgate/internal/domain"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
)

// Service handles collection operations.
type Service struct {
	store Store
}

// New creates a collection service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Create validates and stores a new collection. dim 0 leaves the
// dimension to the store default or the first insert.
func (s *Service) Create(ctx context.Context, name string, metadata map[string]any, dim int) (domcol.Collection, error) {
	if err := domcol.ValidateName(name); err != nil {
		return domcol.Collection{}, domain.NewValidation(err.Error(), domain.FieldError{
			Loc: []string{"body", "collection_name"}, Msg: err.Error(), Type: "value_error",
		})
	}
	if dim < 0 {
		return domcol.Collection{}, domain.NewValidation("dim must not be negative", domain.FieldError{
			Loc: []string{"body", "dim"}, Msg: "must not be negative", Type: "value_error.number.not_ge",
		})
	}

	col, err := s.store.CreateCollection(ctx, name, metadata, dim)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	return col, nil
}

// Get retrieves a collection by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	col, err := s.store.GetCollection(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return col, nil
}

// List returns all collections with their document counts.
func (s *Service) List(ctx context.Context) ([]domcol.Summary, error) {
	cols, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// Delete removes a collection and its documents.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.store.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// DeleteAll removes every collection.
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.store.DeleteAllCollections(ctx); err != nil {
		return fmt.Errorf("delete all collections: %w", err)
	}
	return nil
}

// Metadata returns the store-level descriptor of a collection.
func (s *Service) Metadata(ctx context.Context, name string) (domcol.Descriptor, error) {
	d, err := s.store.GetCollectionMetadata(ctx, name)
	if err != nil {
		return domcol.Descriptor{}, fmt.Errorf("collection metadata: %w", err)
	}
	return d, nil
}
