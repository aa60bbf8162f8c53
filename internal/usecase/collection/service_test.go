package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecgate/internal/domain"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
)

// --- Mocks ---

type mockStore struct {
	createdName string
	createdDim  int
	createErr   error
	getResult   domcol.Collection
	getErr      error
	listResult  []domcol.Summary
	listErr     error
	deleteErr   error
	deleteAll   int
	metaResult  domcol.Descriptor
	metaErr     error
}

func (m *mockStore) CreateCollection(_ context.Context, name string, md map[string]any, dim int) (domcol.Collection, error) {
	m.createdName = name
	m.createdDim = dim
	if m.createErr != nil {
		return domcol.Collection{}, m.createErr
	}
	return domcol.New(name, md, dim)
}

func (m *mockStore) GetCollection(_ context.Context, _ string) (domcol.Collection, error) {
	return m.getResult, m.getErr
}

func (m *mockStore) ListCollections(_ context.Context) ([]domcol.Summary, error) {
	return m.listResult, m.listErr
}

func (m *mockStore) DeleteCollection(_ context.Context, _ string) error {
	return m.deleteErr
}

func (m *mockStore) DeleteAllCollections(_ context.Context) error {
	m.deleteAll++
	return m.deleteErr
}

func (m *mockStore) GetCollectionMetadata(_ context.Context, _ string) (domcol.Descriptor, error) {
	return m.metaResult, m.metaErr
}

// --- Tests ---

func TestCreate_Success(t *testing.T) {
	store := &mockStore{}
	svc := New(store)

	col, err := svc.Create(context.Background(), "test-col", nil, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "test-col" {
		t.Errorf("expected name 'test-col', got %q", col.Name())
	}
	if store.createdDim != 8 {
		t.Errorf("expected dim 8 passed through, got %d", store.createdDim)
	}
}

func TestCreate_InvalidName(t *testing.T) {
	store := &mockStore{}
	svc := New(store)

	_, err := svc.Create(context.Background(), "", nil, 0)
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.createdName != "" {
		t.Error("store must not be called for an invalid name")
	}
}

func TestCreate_NegativeDim(t *testing.T) {
	svc := New(&mockStore{})

	_, err := svc.Create(context.Background(), "docs", nil, -1)
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if de.Details[0].Loc[1] != "dim" {
		t.Errorf("expected loc on dim, got %v", de.Details[0].Loc)
	}
}

func TestCreate_Conflict(t *testing.T) {
	store := &mockStore{createErr: domain.NewConflict("Collection '%s' already exists.", "docs")}
	svc := New(store)

	_, err := svc.Create(context.Background(), "docs", nil, 0)
	if domain.KindOf(err) != domain.KindConflict {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := New(&mockStore{getErr: domain.CollectionMissing("nope")})

	_, err := svc.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_Success(t *testing.T) {
	store := &mockStore{listResult: []domcol.Summary{
		{Name: "a", DocumentCount: 1},
		{Name: "b", DocumentCount: 0},
	}}
	svc := New(store)

	cols, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 {
		t.Errorf("expected 2 collections, got %d", len(cols))
	}
}

func TestList_Error(t *testing.T) {
	svc := New(&mockStore{listErr: errors.New("db error")})

	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := New(&mockStore{deleteErr: domain.CollectionMissing("nope")})

	err := svc.Delete(context.Background(), "nope")
	if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	store := &mockStore{}
	svc := New(store)

	if err := svc.DeleteAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.deleteAll != 1 {
		t.Errorf("expected 1 call, got %d", store.deleteAll)
	}
}

func TestMetadata(t *testing.T) {
	store := &mockStore{metaResult: domcol.Descriptor{Name: "docs", Backend: "sqlite"}}
	svc := New(store)

	d, err := svc.Metadata(context.Background(), "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Backend != "sqlite" {
		t.Errorf("expected backend sqlite, got %q", d.Backend)
	}
}
