package document

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/vecgate/internal/domain"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
)

// AddRequest is a batch insert into one collection.
type AddRequest struct {
	Collection string
	IDs        []string
	Documents  []string
	Embeddings [][]float32
	Metadatas  []map[string]any // optional; defaults to {} per document
}

// QueryRequest is a similarity query against one collection.
type QueryRequest struct {
	Collection      string
	QueryEmbeddings [][]float32
	NResults        int // 0 = default
	Where           map[string]any
}

// Service handles document operations.
type Service struct {
	store  Store
	limits domain.QueryLimits
}

// New creates a document service.
func New(store Store) *Service {
	return &Service{store: store, limits: domain.DefaultQueryLimits()}
}

// WithQueryLimits overrides n_results defaults and bounds.
func (s *Service) WithQueryLimits(l domain.QueryLimits) *Service {
	if l.DefaultNResults > 0 {
		s.limits.DefaultNResults = l.DefaultNResults
	}
	if l.MaxNResults > 0 {
		s.limits.MaxNResults = l.MaxNResults
	}
	return s
}

// Add validates the batch and stores it. Returns the number of new documents.
func (s *Service) Add(ctx context.Context, req AddRequest) (int, error) {
	docs, err := domdoc.NewBatch(req.IDs, req.Documents, req.Embeddings, req.Metadatas)
	if err != nil {
		return 0, err
	}
	n, err := s.store.AddDocuments(ctx, req.Collection, docs)
	if err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	return n, nil
}

// Get returns the raw contents of a collection.
func (s *Service) Get(ctx context.Context, collection string, includeEmbeddings bool) (result.DocumentSet, error) {
	set, err := s.store.GetDocuments(ctx, collection, includeEmbeddings)
	if err != nil {
		return result.DocumentSet{}, fmt.Errorf("get documents: %w", err)
	}
	return set, nil
}

// Query validates the request and returns one ranked list per query vector.
func (s *Service) Query(ctx context.Context, req QueryRequest) (result.QueryResult, error) {
	n := req.NResults
	if n == 0 {
		n = s.limits.DefaultNResults
	}
	if n < 1 || n > s.limits.MaxNResults {
		msg := fmt.Sprintf("n_results must be between 1 and %d", s.limits.MaxNResults)
		return result.QueryResult{}, domain.NewValidation(msg, domain.FieldError{
			Loc: []string{"body", "n_results"}, Msg: msg, Type: "value_error.number.out_of_range",
		})
	}

	if err := validateQueryEmbeddings(req.QueryEmbeddings); err != nil {
		return result.QueryResult{}, err
	}

	where, err := parseWhere("where", req.Where)
	if err != nil {
		return result.QueryResult{}, err
	}

	res, err := s.store.QueryDocuments(ctx, req.Collection, req.QueryEmbeddings, n, where)
	if err != nil {
		return result.QueryResult{}, fmt.Errorf("query: %w", err)
	}
	return res, nil
}

// Delete removes documents by id. Unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return domain.NewValidation("ids must not be empty", domain.FieldError{
			Loc: []string{"body", "ids"}, Msg: "must not be empty", Type: "value_error",
		})
	}
	if err := s.store.DeleteEmbeddings(ctx, collection, ids); err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}
	return nil
}

// DeleteByMetadata removes every document matching the metadata filter.
// An empty filter is rejected rather than wiping the collection.
func (s *Service) DeleteByMetadata(ctx context.Context, collection string, metadata map[string]any) (int, error) {
	if len(metadata) == 0 {
		return 0, domain.NewValidation("metadata filter must not be empty", domain.FieldError{
			Loc: []string{"body", "metadata"}, Msg: "must not be empty", Type: "value_error",
		})
	}
	where, err := parseWhere("metadata", metadata)
	if err != nil {
		return 0, err
	}
	n, err := s.store.DeleteEmbeddingsByMetadata(ctx, collection, where)
	if err != nil {
		return 0, fmt.Errorf("delete embeddings by metadata: %w", err)
	}
	return n, nil
}

// Count returns the number of documents in a collection.
func (s *Service) Count(ctx context.Context, collection string) (int, error) {
	n, err := s.store.CountDocuments(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func validateQueryEmbeddings(vectors [][]float32) error {
	if len(vectors) == 0 {
		return domain.NewValidation("query_embeddings must not be empty", domain.FieldError{
			Loc: []string{"body", "query_embeddings"}, Msg: "must not be empty", Type: "value_error",
		})
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		switch {
		case len(v) == 0:
			return domain.NewValidation("query embedding must not be empty", domain.FieldError{
				Loc: []string{"body", "query_embeddings", strconv.Itoa(i)}, Msg: "must not be empty", Type: "value_error",
			})
		case len(v) != dim:
			msg := fmt.Sprintf("expected %d dimensions, got %d", dim, len(v))
			return domain.NewValidation("query embeddings differ in dimension", domain.FieldError{
				Loc: []string{"body", "query_embeddings", strconv.Itoa(i)}, Msg: msg, Type: "value_error.dimension",
			})
		}
	}
	return nil
}

func parseWhere(field string, raw map[string]any) (filter.Expression, error) {
	where, err := filter.Parse(raw)
	if err != nil {
		return filter.Expression{}, domain.NewValidation("invalid "+field+" filter", domain.FieldError{
			Loc: []string{"body", field}, Msg: err.Error(), Type: "value_error.filter",
		})
	}
	return where, nil
}
