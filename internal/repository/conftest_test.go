package repository

import (
	"context"
	"testing"

	"github.com/kailas-cloud/vecgate/internal/domain"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
)

// mockBackend implements Backend with overridable function fields.
// Collections live in an in-memory map unless a function overrides the call.
type mockBackend struct {
	cols map[string]domcol.Collection

	pingFn        func(ctx context.Context) error
	createFn      func(ctx context.Context, col domcol.Collection) error
	deleteFn      func(ctx context.Context, name string) error
	countFn       func(ctx context.Context, col domcol.Collection) (int, error)
	addFn         func(ctx context.Context, col domcol.Collection, docs []domdoc.Document) (int, error)
	getDocsFn     func(ctx context.Context, col domcol.Collection, emb bool) (result.DocumentSet, error)
	queryFn       func(ctx context.Context, col domcol.Collection, v []float32, n int, where filter.Expression) ([]result.Hit, error)
	deleteDocsFn  func(ctx context.Context, col domcol.Collection, ids []string) error
	deleteWhereFn func(ctx context.Context, col domcol.Collection, where filter.Expression) (int, error)
	setDimCalls   int
	closed        bool
}

func newMockBackend() *mockBackend {
	return &mockBackend{cols: map[string]domcol.Collection{}}
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockBackend) Close() error {
	m.closed = true
	return nil
}

func (m *mockBackend) CreateCollection(ctx context.Context, col domcol.Collection) error {
	if m.createFn != nil {
		return m.createFn(ctx, col)
	}
	if _, ok := m.cols[col.Name()]; ok {
		return domain.ErrAlreadyExists
	}
	m.cols[col.Name()] = col
	return nil
}

func (m *mockBackend) GetCollection(_ context.Context, name string) (domcol.Collection, error) {
	col, ok := m.cols[name]
	if !ok {
		return domcol.Collection{}, domain.ErrNotFound
	}
	return col, nil
}

func (m *mockBackend) ListCollections(_ context.Context) ([]domcol.Collection, error) {
	out := make([]domcol.Collection, 0, len(m.cols))
	for _, c := range m.cols {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockBackend) SetDimension(_ context.Context, col domcol.Collection) error {
	m.setDimCalls++
	m.cols[col.Name()] = col
	return nil
}

func (m *mockBackend) DeleteCollection(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	if _, ok := m.cols[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.cols, name)
	return nil
}

func (m *mockBackend) CountDocuments(ctx context.Context, col domcol.Collection) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, col)
	}
	return 0, nil
}

func (m *mockBackend) AddDocuments(ctx context.Context, col domcol.Collection, docs []domdoc.Document) (int, error) {
	if m.addFn != nil {
		return m.addFn(ctx, col, docs)
	}
	return len(docs), nil
}

func (m *mockBackend) GetDocuments(ctx context.Context, col domcol.Collection, emb bool) (result.DocumentSet, error) {
	if m.getDocsFn != nil {
		return m.getDocsFn(ctx, col, emb)
	}
	return result.EmptyDocumentSet(), nil
}

func (m *mockBackend) Query(
	ctx context.Context, col domcol.Collection, v []float32, n int, where filter.Expression,
) ([]result.Hit, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, col, v, n, where)
	}
	return nil, nil
}

func (m *mockBackend) DeleteDocuments(ctx context.Context, col domcol.Collection, ids []string) error {
	if m.deleteDocsFn != nil {
		return m.deleteDocsFn(ctx, col, ids)
	}
	return nil
}

func (m *mockBackend) DeleteWhere(ctx context.Context, col domcol.Collection, where filter.Expression) (int, error) {
	if m.deleteWhereFn != nil {
		return m.deleteWhereFn(ctx, col, where)
	}
	return 0, nil
}

func newTestClient(t *testing.T) (*Client, *mockBackend) {
	t.Helper()
	mb := newMockBackend()
	return NewClient(mb, Options{}, nil), mb
}

func seedCollection(t *testing.T, mb *mockBackend, name string, dim int) domcol.Collection {
	t.Helper()
	col, err := domcol.New(name, nil, dim)
	if err != nil {
		t.Fatalf("domcol.New: %v", err)
	}
	mb.cols[name] = col
	return col
}

func makeDocs(t *testing.T, dim int, ids ...string) []domdoc.Document {
	t.Helper()
	docs := make([]domdoc.Document, 0, len(ids))
	for _, id := range ids {
		emb := make([]float32, dim)
		for i := range emb {
			emb[i] = 0.5
		}
		d, err := domdoc.New(id, "text "+id, emb, nil)
		if err != nil {
			t.Fatalf("domdoc.New: %v", err)
		}
		docs = append(docs, d)
	}
	return docs
}
