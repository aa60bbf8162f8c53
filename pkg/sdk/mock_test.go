package vecgate

import (
	"context"

	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
	documentuc "github.com/kailas-cloud/vecgate/internal/usecase/document"
)

// --- collectionUseCase mock ---

type mockCollectionUC struct {
	createFn    func(ctx context.Context, name string, md map[string]any, dim int) (domcol.Collection, error)
	getFn       func(ctx context.Context, name string) (domcol.Collection, error)
	listFn      func(ctx context.Context) ([]domcol.Summary, error)
	deleteFn    func(ctx context.Context, name string) error
	deleteAllFn func(ctx context.Context) error
	metadataFn  func(ctx context.Context, name string) (domcol.Descriptor, error)
}

func (m *mockCollectionUC) Create(
	ctx context.Context, name string, md map[string]any, dim int,
) (domcol.Collection, error) {
	return m.createFn(ctx, name, md, dim)
}

func (m *mockCollectionUC) Get(ctx context.Context, name string) (domcol.Collection, error) {
	return m.getFn(ctx, name)
}

func (m *mockCollectionUC) List(ctx context.Context) ([]domcol.Summary, error) {
	return m.listFn(ctx)
}

func (m *mockCollectionUC) Delete(ctx context.Context, name string) error {
	return m.deleteFn(ctx, name)
}

func (m *mockCollectionUC) DeleteAll(ctx context.Context) error {
	return m.deleteAllFn(ctx)
}

func (m *mockCollectionUC) Metadata(ctx context.Context, name string) (domcol.Descriptor, error) {
	return m.metadataFn(ctx, name)
}

// --- documentUseCase mock ---

type mockDocumentUC struct {
	addFn         func(ctx context.Context, req documentuc.AddRequest) (int, error)
	getFn         func(ctx context.Context, col string, include bool) (result.DocumentSet, error)
	queryFn       func(ctx context.Context, req documentuc.QueryRequest) (result.QueryResult, error)
	deleteFn      func(ctx context.Context, col string, ids []string) error
	deleteWhereFn func(ctx context.Context, col string, md map[string]any) (int, error)
	countFn       func(ctx context.Context, col string) (int, error)
}

func (m *mockDocumentUC) Add(ctx context.Context, req documentuc.AddRequest) (int, error) {
	return m.addFn(ctx, req)
}

func (m *mockDocumentUC) Get(ctx context.Context, col string, include bool) (result.DocumentSet, error) {
	return m.getFn(ctx, col, include)
}

func (m *mockDocumentUC) Query(ctx context.Context, req documentuc.QueryRequest) (result.QueryResult, error) {
	return m.queryFn(ctx, req)
}

func (m *mockDocumentUC) Delete(ctx context.Context, col string, ids []string) error {
	return m.deleteFn(ctx, col, ids)
}

func (m *mockDocumentUC) DeleteByMetadata(ctx context.Context, col string, md map[string]any) (int, error) {
	return m.deleteWhereFn(ctx, col, md)
}

func (m *mockDocumentUC) Count(ctx context.Context, col string) (int, error) {
	return m.countFn(ctx, col)
}
