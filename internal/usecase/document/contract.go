package document

import (
	"context"

	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
)

// Store defines the document operations of the store client. Every call
// resolves the collection first and fails with a not-found error when absent.
type Store interface {
	AddDocuments(ctx context.Context, collection string, docs []domdoc.Document) (int, error)
	GetDocuments(ctx context.Context, collection string, includeEmbeddings bool) (result.DocumentSet, error)
	QueryDocuments(
		ctx context.Context, collection string, vectors [][]float32, n int, where filter.Expression,
	) (result.QueryResult, error)
	DeleteEmbeddings(ctx context.Context, collection string, ids []string) error
	DeleteEmbeddingsByMetadata(ctx context.Context, collection string, where filter.Expression) (int, error)
	CountDocuments(ctx context.Context, collection string) (int, error)
}
