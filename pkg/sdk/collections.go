package vecgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

// CollectionService manages collections.
type CollectionService struct {
	svc collectionUseCase
	obs *observer
}

// Create creates a new collection. A duplicate name fails with ErrAlreadyExists.
func (s *CollectionService) Create(
	ctx context.Context, name string, opts ...CollectionOption,
) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("collection.create", start, err) }()

	cfg := &collectionConfig{}
	for _, o := range opts {
		o.applyCollection(cfg)
	}

	col, err := s.svc.Create(ctx, name, cfg.metadata, cfg.dimension)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("create collection: %w", err)
	}
	return fromCollection(col), nil
}

// Ensure creates a collection if it does not exist.
// If it already exists, returns its info.
func (s *CollectionService) Ensure(
	ctx context.Context, name string, opts ...CollectionOption,
) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("collection.ensure", start, err) }()

	cfg := &collectionConfig{}
	for _, o := range opts {
		o.applyCollection(cfg)
	}

	col, err := s.svc.Create(ctx, name, cfg.metadata, cfg.dimension)
	if err == nil {
		return fromCollection(col), nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return CollectionInfo{}, fmt.Errorf("ensure collection: %w", err)
	}

	existing, err := s.svc.Get(ctx, name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("ensure collection: %w", err)
	}
	return fromCollection(existing), nil
}

// Get returns the store-level description of a collection.
func (s *CollectionService) Get(
	ctx context.Context, name string,
) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("collection.get", start, err) }()

	d, err := s.svc.Metadata(ctx, name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("get collection: %w", err)
	}
	return fromDescriptor(d), nil
}

// List returns every collection with its document count.
func (s *CollectionService) List(ctx context.Context) (_ []CollectionSummary, err error) {
	start := time.Now()
	defer func() { s.obs.observe("collection.list", start, err) }()

	cols, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	out := make([]CollectionSummary, len(cols))
	for i, c := range cols {
		out[i] = CollectionSummary{Name: c.Name, Metadata: c.Metadata, DocumentCount: c.DocumentCount}
	}
	return out, nil
}

// Delete removes a collection and its documents.
func (s *CollectionService) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("collection.delete", start, err) }()

	if err = s.svc.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// DeleteAll removes every collection.
func (s *CollectionService) DeleteAll(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("collection.delete_all", start, err) }()

	if err = s.svc.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all collections: %w", err)
	}
	return nil
}
