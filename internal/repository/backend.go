package repository

import (
	"context"

	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
)

// Backend is the capability set a vector store driver provides.
// Drivers return domain.ErrNotFound / domain.ErrAlreadyExists for missing
// and duplicate collections; everything else is a store failure.
//
//nolint:interfacebloat // one driver covers collection + document storage
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	CreateCollection(ctx context.Context, col domcol.Collection) error
	GetCollection(ctx context.Context, name string) (domcol.Collection, error)
	ListCollections(ctx context.Context) ([]domcol.Collection, error)
	SetDimension(ctx context.Context, col domcol.Collection) error
	DeleteCollection(ctx context.Context, name string) error

	CountDocuments(ctx context.Context, col domcol.Collection) (int, error)
	AddDocuments(ctx context.Context, col domcol.Collection, docs []domdoc.Document) (int, error)
	GetDocuments(ctx context.Context, col domcol.Collection, includeEmbeddings bool) (result.DocumentSet, error)
	Query(ctx context.Context, col domcol.Collection, vector []float32, n int, where filter.Expression) ([]result.Hit, error)
	DeleteDocuments(ctx context.Context, col domcol.Collection, ids []string) error
	DeleteWhere(ctx context.Context, col domcol.Collection, where filter.Expression) (int, error)
}
