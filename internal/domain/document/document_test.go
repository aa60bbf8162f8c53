package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	doc, err := New("doc-1", "hello world", []float32{0.1, 0.2}, map[string]any{"lang": "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "doc-1" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Content() != "hello world" {
		t.Errorf("Content() = %q", doc.Content())
	}
	if len(doc.Embedding()) != 2 {
		t.Errorf("Embedding() = %v", doc.Embedding())
	}
	if doc.Metadata()["lang"] != "go" {
		t.Errorf("Metadata() = %v", doc.Metadata())
	}
}

func TestNew_NilMetadataBecomesEmpty(t *testing.T) {
	doc, err := New("doc-1", "content", []float32{1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Metadata() == nil || len(doc.Metadata()) != 0 {
		t.Errorf("Metadata() = %v, want empty map", doc.Metadata())
	}
}

func TestNew_ClonesMetadata(t *testing.T) {
	meta := map[string]any{"k": "v"}
	doc, _ := New("doc-1", "content", []float32{1}, meta)

	meta["k"] = "mutated"

	if doc.Metadata()["k"] != "v" {
		t.Error("metadata mutation leaked into document")
	}
}

func TestNew_EmptyID(t *testing.T) {
	_, err := New("", "content", []float32{1}, nil)
	if err == nil {
		t.Fatal("expected error for empty ID")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want 'required'", err)
	}
}

func TestNew_EmptyEmbedding(t *testing.T) {
	if _, err := New("doc-1", "content", nil, nil); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestNew_NonScalarMetadata(t *testing.T) {
	bad := []any{nil, []any{"a"}, map[string]any{"x": 1}}
	for _, v := range bad {
		if _, err := New("doc-1", "c", []float32{1}, map[string]any{"k": v}); err == nil {
			t.Errorf("expected error for metadata value %#v", v)
		}
	}
}

func TestNewBatch_Valid(t *testing.T) {
	docs, err := NewBatch(
		[]string{"a", "b"},
		[]string{"first", "second"},
		[][]float32{{0.1, 0.2}, {0.3, 0.4}},
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2", len(docs))
	}
	for _, d := range docs {
		if d.Metadata() == nil || len(d.Metadata()) != 0 {
			t.Errorf("doc %s metadata = %v, want {}", d.ID(), d.Metadata())
		}
	}
	if Dimension(docs) != 2 {
		t.Errorf("Dimension() = %d, want 2", Dimension(docs))
	}
}

func TestNewBatch_LengthMismatch(t *testing.T) {
	tests := []struct {
		name       string
		contents   []string
		embeddings [][]float32
		metadatas  []map[string]any
		field      string
	}{
		{"documents", []string{"x"}, [][]float32{{1}, {2}}, nil, "documents"},
		{"embeddings", []string{"x", "y"}, [][]float32{{1}}, nil, "embeddings"},
		{"metadatas", []string{"x", "y"}, [][]float32{{1}, {2}}, []map[string]any{{}}, "metadatas"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBatch([]string{"a", "b"}, tc.contents, tc.embeddings, tc.metadatas)
			var de *domain.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected *domain.Error, got %v", err)
			}
			if de.Kind != domain.KindValidation {
				t.Errorf("Kind = %v, want validation", de.Kind)
			}
			if len(de.Details) != 1 || de.Details[0].Loc[1] != tc.field {
				t.Errorf("Details = %+v, want one entry for %s", de.Details, tc.field)
			}
		})
	}
}

func TestNewBatch_DuplicateIDs(t *testing.T) {
	_, err := NewBatch(
		[]string{"a", "a"},
		[]string{"x", "y"},
		[][]float32{{1}, {2}},
		nil,
	)
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("KindOf = %v, want validation (err=%v)", domain.KindOf(err), err)
	}
	if !strings.Contains(err.Error(), "invalid documents") {
		t.Errorf("error = %q", err)
	}
}

func TestNewBatch_InconsistentDimension(t *testing.T) {
	_, err := NewBatch(
		[]string{"a", "b"},
		[]string{"x", "y"},
		[][]float32{{1, 2}, {3}},
		nil,
	)
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.Error, got %v", err)
	}
	if de.Details[0].Type != "value_error.dimension" {
		t.Errorf("Type = %q, want value_error.dimension", de.Details[0].Type)
	}
}

func TestNewBatch_Empty(t *testing.T) {
	if _, err := NewBatch(nil, nil, nil, nil); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
