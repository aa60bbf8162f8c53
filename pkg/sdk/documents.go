package vecgate

import (
	"context"
	"fmt"
	"time"

	documentuc "github.com/kailas-cloud/vecgate/internal/usecase/document"
)

// DocumentService operates on the documents of one collection.
type DocumentService struct {
	collection string
	svc        documentUseCase
	obs        *observer
}

// QueryOption configures a query.
type QueryOption func(*documentuc.QueryRequest)

// WithNResults sets the number of hits per query vector.
func WithNResults(n int) QueryOption {
	return func(r *documentuc.QueryRequest) { r.NResults = n }
}

// WithWhere restricts hits to documents whose metadata matches the filter.
func WithWhere(where map[string]any) QueryOption {
	return func(r *documentuc.QueryRequest) { r.Where = where }
}

// Add stores documents. Ids already present are skipped; the number of
// new documents is returned.
func (s *DocumentService) Add(ctx context.Context, docs []Document) (_ int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.add", start, err) }()

	req := documentuc.AddRequest{
		Collection: s.collection,
		IDs:        make([]string, len(docs)),
		Documents:  make([]string, len(docs)),
		Embeddings: make([][]float32, len(docs)),
		Metadatas:  make([]map[string]any, len(docs)),
	}
	for i, d := range docs {
		req.IDs[i] = d.ID
		req.Documents[i] = d.Content
		req.Embeddings[i] = d.Embedding
		req.Metadatas[i] = d.Metadata
	}

	n, err := s.svc.Add(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	return n, nil
}

// Get returns every document, ordered by id.
func (s *DocumentService) Get(ctx context.Context, includeEmbeddings bool) (_ []Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.get", start, err) }()

	set, err := s.svc.Get(ctx, s.collection, includeEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	return fromDocumentSet(set), nil
}

// Query returns one ranked hit list per query vector, closest first.
func (s *DocumentService) Query(
	ctx context.Context, vectors [][]float32, opts ...QueryOption,
) (_ [][]Hit, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.query", start, err) }()

	req := documentuc.QueryRequest{Collection: s.collection, QueryEmbeddings: vectors}
	for _, o := range opts {
		o(&req)
	}

	res, err := s.svc.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return fromQueryResult(res), nil
}

// Delete removes documents by id. Unknown ids are ignored.
func (s *DocumentService) Delete(ctx context.Context, ids ...string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.delete", start, err) }()

	if err = s.svc.Delete(ctx, s.collection, ids); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// DeleteWhere removes documents whose metadata matches the filter and
// returns how many were removed. An empty filter is rejected.
func (s *DocumentService) DeleteWhere(ctx context.Context, where map[string]any) (_ int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.delete_where", start, err) }()

	n, err := s.svc.DeleteByMetadata(ctx, s.collection, where)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return n, nil
}

// Count returns the number of documents in the collection.
func (s *DocumentService) Count(ctx context.Context) (_ int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.count", start, err) }()

	n, err := s.svc.Count(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
