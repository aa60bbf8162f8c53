package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/vecgate/internal/domain"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
	"github.com/kailas-cloud/vecgate/internal/metrics"
)

func assertKind(t *testing.T, err error, want domain.Kind) *domain.Error {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.Error, got %T: %v", err, err)
	}
	if de.Kind != want {
		t.Fatalf("expected kind %s, got %s (%v)", want, de.Kind, err)
	}
	return de
}

func TestCreateCollection_Success(t *testing.T) {
	c, mb := newTestClient(t)

	col, err := c.CreateCollection(context.Background(), "docs", nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "docs" {
		t.Errorf("expected name docs, got %q", col.Name())
	}
	if col.Metadata()["_type"] != "embedding" {
		t.Errorf("expected default metadata, got %v", col.Metadata())
	}
	if _, ok := mb.cols["docs"]; !ok {
		t.Error("expected collection stored in backend")
	}
}

func TestCreateCollection_DefaultDimension(t *testing.T) {
	mb := newMockBackend()
	c := NewClient(mb, Options{DefaultDimension: 384}, nil)

	col, err := c.CreateCollection(context.Background(), "docs", nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Dimension() != 384 {
		t.Errorf("expected dimension 384, got %d", col.Dimension())
	}

	col, err = c.CreateCollection(context.Background(), "explicit", nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Dimension() != 3 {
		t.Errorf("expected dimension 3, got %d", col.Dimension())
	}
}

func TestCreateCollection_Duplicate(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "docs", 2)

	_, err := c.CreateCollection(context.Background(), "docs", nil, 0)
	de := assertKind(t, err, domain.KindConflict)
	if de.Message != "Collection 'docs' already exists." {
		t.Errorf("unexpected message %q", de.Message)
	}
}

func TestCreateCollection_InvalidName(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.CreateCollection(context.Background(), "bad name!", nil, 0)
	assertKind(t, err, domain.KindValidation)
}

func TestCreateCollection_InvalidSpace(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.CreateCollection(context.Background(), "docs", map[string]any{domcol.SpaceKey: "manhattan"}, 0)
	assertKind(t, err, domain.KindValidation)
}

func TestGetCollection_Missing(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.GetCollection(context.Background(), "ghost")
	de := assertKind(t, err, domain.KindNotFound)
	if de.Message != "Collection 'ghost' does not exist." {
		t.Errorf("unexpected message %q", de.Message)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Error("expected error to wrap domain.ErrNotFound")
	}
}

func TestListCollections_WithCounts(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "a", 2)
	mb.countFn = func(_ context.Context, col domcol.Collection) (int, error) {
		return len(col.Name()) * 7, nil
	}

	list, err := c.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 collection, got %d", len(list))
	}
	if list[0].Name != "a" || list[0].DocumentCount != 7 {
		t.Errorf("unexpected summary %+v", list[0])
	}
}

func TestListCollections_CountFailure(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "a", 2)
	mb.countFn = func(context.Context, domcol.Collection) (int, error) {
		return 0, errors.New("connection reset")
	}

	_, err := c.ListCollections(context.Background())
	de := assertKind(t, err, domain.KindBackend)
	if !strings.Contains(de.Message, "connection reset") {
		t.Errorf("expected raw backend message, got %q", de.Message)
	}
}

func TestDeleteCollection_Missing(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.DeleteCollection(context.Background(), "ghost")
	de := assertKind(t, err, domain.KindNotFound)
	if de.Message != "Collection 'ghost' does not exist." {
		t.Errorf("unexpected message %q", de.Message)
	}
}

func TestDeleteAllCollections(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "a", 2)
	seedCollection(t, mb, "b", 2)

	if err := c.DeleteAllCollections(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mb.cols) != 0 {
		t.Errorf("expected no collections, got %d", len(mb.cols))
	}
}

func TestDeleteAllCollections_FirstFailureAborts(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "a", 2)
	calls := 0
	mb.deleteFn = func(_ context.Context, name string) error {
		calls++
		return errors.New("boom")
	}

	err := c.DeleteAllCollections(context.Background())
	de := assertKind(t, err, domain.KindBackend)
	if !strings.Contains(de.Message, "delete collection a") {
		t.Errorf("expected message to name the collection, got %q", de.Message)
	}
	if calls != 1 {
		t.Errorf("expected 1 delete call, got %d", calls)
	}
}

func TestAddDocuments_FixesDimension(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "docs", 0)

	var got domcol.Collection
	mb.addFn = func(_ context.Context, col domcol.Collection, docs []domdoc.Document) (int, error) {
		got = col
		return len(docs), nil
	}

	n, err := c.AddDocuments(context.Background(), "docs", makeDocs(t, 3, "a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 added, got %d", n)
	}
	if got.Dimension() != 3 {
		t.Errorf("expected dimension 3 passed to backend, got %d", got.Dimension())
	}
	if mb.cols["docs"].Dimension() != 3 {
		t.Errorf("expected stored dimension 3, got %d", mb.cols["docs"].Dimension())
	}
	if mb.setDimCalls != 1 {
		t.Errorf("expected 1 SetDimension call, got %d", mb.setDimCalls)
	}

	if _, err := c.AddDocuments(context.Background(), "docs", makeDocs(t, 3, "c")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mb.setDimCalls != 1 {
		t.Errorf("expected dimension fixed once, got %d calls", mb.setDimCalls)
	}
}

func TestAddDocuments_DimensionMismatch(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "docs", 2)
	mb.addFn = func(context.Context, domcol.Collection, []domdoc.Document) (int, error) {
		t.Fatal("backend must not be called")
		return 0, nil
	}

	_, err := c.AddDocuments(context.Background(), "docs", makeDocs(t, 3, "a"))
	de := assertKind(t, err, domain.KindValidation)
	if len(de.Details) != 1 || de.Details[0].Type != "value_error.dimension" {
		t.Errorf("unexpected details %+v", de.Details)
	}
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Error("expected error to wrap ErrVectorDimMismatch")
	}
}

func TestAddDocuments_MissingCollection(t *testing.T) {
	c, mb := newTestClient(t)
	called := false
	mb.addFn = func(context.Context, domcol.Collection, []domdoc.Document) (int, error) {
		called = true
		return 0, nil
	}

	_, err := c.AddDocuments(context.Background(), "ghost", makeDocs(t, 2, "a"))
	assertKind(t, err, domain.KindNotFound)
	if called {
		t.Error("backend add must not run for a missing collection")
	}
}

func TestQueryDocuments_NoDimensionIsEmpty(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "docs", 0)

	res, err := c.QueryDocuments(context.Background(), "docs", [][]float32{{1, 2}}, 3, filter.Expression{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.IDs) != 1 || len(res.IDs[0]) != 0 {
		t.Errorf("expected one empty row, got %v", res.IDs)
	}
}

func TestQueryDocuments_PerVector(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "docs", 2)
	mb.queryFn = func(_ context.Context, _ domcol.Collection, v []float32, n int, _ filter.Expression) ([]result.Hit, error) {
		if n != 5 {
			t.Errorf("expected n=5, got %d", n)
		}
		if v[0] == 1 {
			return []result.Hit{{ID: "a", Distance: 0.1}}, nil
		}
		return []result.Hit{{ID: "b", Distance: 0.2}}, nil
	}

	res, err := c.QueryDocuments(context.Background(), "docs", [][]float32{{1, 0}, {0, 1}}, 5, filter.Expression{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IDs[0][0] != "a" || res.IDs[1][0] != "b" {
		t.Errorf("unexpected ids %v", res.IDs)
	}
	if res.Metadatas[0][0] == nil {
		t.Error("expected non-nil metadata map")
	}
}

func TestQueryDocuments_DimensionMismatch(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "docs", 2)

	_, err := c.QueryDocuments(context.Background(), "docs", [][]float32{{1, 0}, {1, 2, 3}}, 1, filter.Expression{})
	de := assertKind(t, err, domain.KindValidation)
	want := []string{"body", "query_embeddings", "1"}
	if strings.Join(de.Details[0].Loc, "/") != strings.Join(want, "/") {
		t.Errorf("unexpected loc %v", de.Details[0].Loc)
	}
}

func TestDeleteEmbeddingsByMetadata(t *testing.T) {
	c, mb := newTestClient(t)
	seedCollection(t, mb, "docs", 2)
	where, err := filter.Parse(map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("filter.Parse: %v", err)
	}
	mb.deleteWhereFn = func(_ context.Context, _ domcol.Collection, got filter.Expression) (int, error) {
		if got.Condition().Key() != "k" {
			t.Errorf("unexpected filter key %q", got.Condition().Key())
		}
		return 4, nil
	}

	n, err := c.DeleteEmbeddingsByMetadata(context.Background(), "docs", where)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 deleted, got %d", n)
	}
}

func TestDeleteEmbeddings_MissingCollection(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.DeleteEmbeddings(context.Background(), "ghost", []string{"a"})
	assertKind(t, err, domain.KindNotFound)
}

func TestGetCollectionMetadata(t *testing.T) {
	c, mb := newTestClient(t)
	col := seedCollection(t, mb, "docs", 4)

	d, err := c.GetCollectionMetadata(context.Background(), "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID != col.ID() || d.Backend != "mock" || d.Dimension == nil || *d.Dimension != 4 {
		t.Errorf("unexpected descriptor %+v", d)
	}
	if d.Space != domcol.SpaceL2 {
		t.Errorf("expected default space l2, got %s", d.Space)
	}
}

func TestRun_Timeout(t *testing.T) {
	mb := newMockBackend()
	mb.pingFn = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	c := NewClient(mb, Options{OpTimeout: 10 * time.Millisecond}, nil)

	err := c.Ping(context.Background())
	de := assertKind(t, err, domain.KindBackend)
	if de.Message != "store operation timed out" {
		t.Errorf("unexpected message %q", de.Message)
	}
	if !errors.Is(err, domain.ErrTimeout) {
		t.Error("expected error to wrap ErrTimeout")
	}
}

func TestRun_RecordsMetrics(t *testing.T) {
	c, _ := newTestClient(t)

	before := testutil.ToFloat64(metrics.StoreRequestsTotal.WithLabelValues("mock", opGetCollection, "not_found"))
	_, _ = c.GetCollection(context.Background(), "ghost")
	after := testutil.ToFloat64(metrics.StoreRequestsTotal.WithLabelValues("mock", opGetCollection, "not_found"))

	if after-before != 1 {
		t.Errorf("expected not_found counter +1, got %f", after-before)
	}
}

func TestMapError(t *testing.T) {
	tagged := domain.NewValidation("bad")
	tests := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{"tagged passthrough", tagged, domain.KindValidation},
		{"not found", domain.ErrNotFound, domain.KindNotFound},
		{"conflict", domain.ErrAlreadyExists, domain.KindConflict},
		{"deadline", context.DeadlineExceeded, domain.KindBackend},
		{"other", errors.New("x"), domain.KindBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError("docs", tt.err)
			if domain.KindOf(got) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, domain.KindOf(got))
			}
		})
	}

	if mapError("docs", nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestClose(t *testing.T) {
	c, mb := newTestClient(t)

	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mb.closed {
		t.Error("expected backend closed")
	}
}
