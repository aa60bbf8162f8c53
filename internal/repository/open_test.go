package repository

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/config"
	"github.com/kailas-cloud/vecgate/internal/domain"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
)

func openLocal(t *testing.T) *Client {
	t.Helper()
	cfg := config.StoreConfig{
		Local:        config.LocalConfig{Path: filepath.Join(t.TempDir(), "vecgate.db")},
		OpTimeoutSec: 5,
	}
	c, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpen_LocalScenario(t *testing.T) {
	c := openLocal(t)
	ctx := context.Background()
	if c.Backend() != "sqlite" {
		t.Errorf("Backend() = %q, want sqlite", c.Backend())
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := c.CreateCollection(ctx, "docs", nil, 0); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	list, err := c.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(list) != 1 || list[0].Name != "docs" || list[0].DocumentCount != 0 {
		t.Fatalf("unexpected list: %+v", list)
	}

	docs, err := domdoc.NewBatch(
		[]string{"a", "b"},
		[]string{"first", "second"},
		[][]float32{{0.1, 0.2}, {0.3, 0.4}},
		nil,
	)
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	n, err := c.AddDocuments(ctx, "docs", docs)
	if err != nil || n != 2 {
		t.Fatalf("AddDocuments = %d, %v", n, err)
	}

	set, err := c.GetDocuments(ctx, "docs", false)
	if err != nil {
		t.Fatalf("GetDocuments: %v", err)
	}
	if !reflect.DeepEqual(set.IDs, []string{"a", "b"}) {
		t.Errorf("IDs = %v", set.IDs)
	}
	if !reflect.DeepEqual(set.Metadatas[0], map[string]any{}) {
		t.Errorf("Metadatas[0] = %v, want {}", set.Metadatas[0])
	}

	res, err := c.QueryDocuments(ctx, "docs", [][]float32{{0.1, 0.2}}, 1, filter.Expression{})
	if err != nil {
		t.Fatalf("QueryDocuments: %v", err)
	}
	if res.Len(0) != 1 || res.IDs[0][0] != "a" {
		t.Errorf("unexpected result: %+v", res)
	}

	meta, err := c.GetCollectionMetadata(ctx, "docs")
	if err != nil {
		t.Fatalf("GetCollectionMetadata: %v", err)
	}
	if meta.Dimension == nil || *meta.Dimension != 2 || meta.Backend != "sqlite" {
		t.Errorf("unexpected descriptor: %+v", meta)
	}

	count, err := c.CountDocuments(ctx, "docs")
	if err != nil || count != 2 {
		t.Errorf("CountDocuments = %d, %v", count, err)
	}

	if err := c.DeleteAllCollections(ctx); err != nil {
		t.Fatalf("DeleteAllCollections: %v", err)
	}
	list, err = c.ListCollections(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("ListCollections after delete all = %v, %v", list, err)
	}
}

func TestOpen_LocalDeleteByMetadata(t *testing.T) {
	c := openLocal(t)
	ctx := context.Background()

	if _, err := c.CreateCollection(ctx, "docs", nil, 2); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	docs, err := domdoc.NewBatch(
		[]string{"a", "b", "c"},
		[]string{"x", "y", "z"},
		[][]float32{{0, 1}, {1, 0}, {1, 1}},
		[]map[string]any{{"src": "web"}, {"src": "pdf"}, {"src": "web"}},
	)
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	if _, err := c.AddDocuments(ctx, "docs", docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	where, err := filter.Parse(map[string]any{"src": "web"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n, err := c.DeleteEmbeddingsByMetadata(ctx, "docs", where)
	if err != nil || n != 2 {
		t.Fatalf("DeleteEmbeddingsByMetadata = %d, %v", n, err)
	}

	set, err := c.GetDocuments(ctx, "docs", false)
	if err != nil {
		t.Fatalf("GetDocuments: %v", err)
	}
	if !reflect.DeepEqual(set.IDs, []string{"b"}) {
		t.Errorf("IDs = %v, want [b]", set.IDs)
	}
}

func TestOpen_LocalErrors(t *testing.T) {
	c := openLocal(t)
	ctx := context.Background()

	if err := c.DeleteCollection(ctx, "ghost"); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("DeleteCollection(ghost) kind = %v, err = %v", domain.KindOf(err), err)
	}

	if _, err := c.CreateCollection(ctx, "docs", nil, 0); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if _, err := c.CreateCollection(ctx, "docs", nil, 0); domain.KindOf(err) != domain.KindConflict {
		t.Errorf("duplicate create kind = %v, err = %v", domain.KindOf(err), err)
	}

	res, err := c.QueryDocuments(ctx, "docs", [][]float32{{1, 2}}, 3, filter.Expression{})
	if err != nil {
		t.Fatalf("QueryDocuments: %v", err)
	}
	if res.Len(0) != 0 {
		t.Errorf("expected no hits, got %+v", res)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.StoreConfig{Remote: config.RemoteConfig{Driver: "mongo", Addrs: []string{"x:1"}}}

	_, err := Open(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), `unknown store driver "mongo"`) {
		t.Errorf("expected unknown driver error, got %v", err)
	}
}
