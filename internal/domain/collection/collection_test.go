package collection

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	before := time.Now().UnixMilli()

	col, err := New("my-collection", map[string]any{"owner": "hc"}, 384)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := time.Now().UnixMilli()

	if col.Name() != "my-collection" {
		t.Errorf("Name() = %q, want %q", col.Name(), "my-collection")
	}
	if col.Dimension() != 384 {
		t.Errorf("Dimension() = %d, want 384", col.Dimension())
	}
	if col.Metadata()["owner"] != "hc" {
		t.Errorf("Metadata() = %v", col.Metadata())
	}
	if col.ID() == "" {
		t.Error("ID() is empty")
	}
	if col.CreatedAt() < before || col.CreatedAt() > after {
		t.Errorf("CreatedAt() = %d, want between %d and %d", col.CreatedAt(), before, after)
	}
}

func TestNew_DefaultMetadata(t *testing.T) {
	col, err := New("docs", nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Metadata()["_type"] != "embedding" {
		t.Errorf("Metadata() = %v, want _type=embedding", col.Metadata())
	}
	if col.HasDimension() {
		t.Error("HasDimension() = true for dimension 0")
	}
}

func TestNew_EmptyMetadataGetsDefault(t *testing.T) {
	col, err := New("docs", map[string]any{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(col.Metadata(), DefaultMetadata()) {
		t.Errorf("Metadata() = %v, want %v", col.Metadata(), DefaultMetadata())
	}
}

func TestNew_ClonesMetadata(t *testing.T) {
	meta := map[string]any{"k": "v"}
	col, _ := New("docs", meta, 0)
	meta["k"] = "mutated"
	if col.Metadata()["k"] != "v" {
		t.Error("metadata mutation leaked into collection")
	}
}

func TestNew_EmptyName(t *testing.T) {
	_, err := New("", nil, 0)
	if err == nil {
		t.Fatal("expected error for empty name")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want 'required'", err)
	}
}

func TestNew_NameTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", 65), nil, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %q, want 'too long'", err)
	}
}

func TestNew_InvalidNameChars(t *testing.T) {
	names := []string{"has space", "слово", "col.name", "col/name", "col@name"}
	for _, name := range names {
		if _, err := New(name, nil, 0); err == nil {
			t.Errorf("expected error for name %q", name)
		}
	}
}

func TestNew_ValidNameChars(t *testing.T) {
	names := []string{"abc", "ABC-123", "with_underscore", "a-b-c", "X"}
	for _, name := range names {
		if _, err := New(name, nil, 0); err != nil {
			t.Errorf("New(%q) unexpected error: %v", name, err)
		}
	}
}

func TestNew_NegativeDimension(t *testing.T) {
	if _, err := New("col", nil, -1); err == nil {
		t.Fatal("expected error for negative dimension")
	}
}

func TestNew_Space(t *testing.T) {
	tests := []struct {
		meta    map[string]any
		want    Space
		wantErr bool
	}{
		{nil, SpaceL2, false},
		{map[string]any{SpaceKey: "cosine"}, SpaceCosine, false},
		{map[string]any{SpaceKey: "ip"}, SpaceIP, false},
		{map[string]any{SpaceKey: "l2"}, SpaceL2, false},
		{map[string]any{SpaceKey: "manhattan"}, "", true},
		{map[string]any{SpaceKey: 3}, "", true},
	}
	for _, tc := range tests {
		col, err := New("col", tc.meta, 0)
		if tc.wantErr {
			if err == nil {
				t.Errorf("New(%v): expected error", tc.meta)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%v): %v", tc.meta, err)
		}
		if col.Space() != tc.want {
			t.Errorf("Space() = %q, want %q", col.Space(), tc.want)
		}
	}
}

func TestWithDimension(t *testing.T) {
	col := Reconstruct("id-1", "col", nil, 0, 1700000000000)
	fixed := col.WithDimension(2)

	if col.HasDimension() {
		t.Error("original collection mutated")
	}
	if fixed.Dimension() != 2 {
		t.Errorf("Dimension() = %d, want 2", fixed.Dimension())
	}
}

func TestDescribe(t *testing.T) {
	col := Reconstruct("id-1", "col", map[string]any{SpaceKey: "cosine"}, 0, 1700000000000)

	d := col.Describe("sqlite")
	if d.Dimension != nil {
		t.Errorf("Dimension = %v, want nil", *d.Dimension)
	}
	if d.Space != SpaceCosine || d.Backend != "sqlite" || d.ID != "id-1" {
		t.Errorf("unexpected descriptor: %+v", d)
	}

	d = col.WithDimension(8).Describe("redis")
	if d.Dimension == nil || *d.Dimension != 8 {
		t.Errorf("Dimension = %v, want 8", d.Dimension)
	}
}
