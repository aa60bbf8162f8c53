package document

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

// Document is the document aggregate (immutable value object).
type Document struct {
	id        string
	content   string
	embedding []float32
	metadata  map[string]any
}

// New validates and creates a Document. A nil metadata map becomes empty.
func New(id, content string, embedding []float32, metadata map[string]any) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(embedding) == 0 {
		return Document{}, fmt.Errorf("embedding for %q is empty", id)
	}
	for k, v := range metadata {
		if err := ValidateMetadataValue(v); err != nil {
			return Document{}, fmt.Errorf("metadata %q of %q: %w", k, id, err)
		}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Document{
		id:        id,
		content:   content,
		embedding: embedding,
		metadata:  maps.Clone(metadata),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, content string, embedding []float32, metadata map[string]any) Document {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Document{id: id, content: content, embedding: embedding, metadata: metadata}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Content returns the document text.
func (d *Document) Content() string { return d.content }

// Embedding returns the document vector.
func (d *Document) Embedding() []float32 { return d.embedding }

// Metadata returns the document metadata, never nil.
func (d *Document) Metadata() map[string]any { return d.metadata }

// ValidateMetadataValue accepts scalar metadata values only: string, number, bool.
func ValidateMetadataValue(v any) error {
	switch v.(type) {
	case string, bool, float64, float32, int, int64, int32, json.Number:
		return nil
	case nil:
		return fmt.Errorf("value must not be null")
	default:
		return fmt.Errorf("value must be a string, number or bool, got %T", v)
	}
}

// NewBatch validates parallel insert lists and builds the documents.
// ids, contents and embeddings must have equal length; metadatas may be nil,
// otherwise it must match too. Ids must be distinct and all embeddings must
// share one dimensionality.
func NewBatch(
	ids, contents []string, embeddings [][]float32, metadatas []map[string]any,
) ([]Document, error) {
	if len(ids) == 0 {
		return nil, domain.NewValidation("ids must not be empty",
			domain.FieldError{Loc: []string{"body", "ids"}, Msg: "must not be empty", Type: "value_error"})
	}

	var details []domain.FieldError
	lengthErr := func(field string, got int) {
		details = append(details, domain.FieldError{
			Loc:  []string{"body", field},
			Msg:  fmt.Sprintf("expected %d items to match ids, got %d", len(ids), got),
			Type: "value_error.length_mismatch",
		})
	}
	if len(contents) != len(ids) {
		lengthErr("documents", len(contents))
	}
	if len(embeddings) != len(ids) {
		lengthErr("embeddings", len(embeddings))
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		lengthErr("metadatas", len(metadatas))
	}
	if len(details) > 0 {
		return nil, domain.NewValidation("ids, documents, embeddings and metadatas must have equal length", details...)
	}

	seen := make(map[string]int, len(ids))
	dim := len(embeddings[0])
	docs := make([]Document, 0, len(ids))
	for i, id := range ids {
		loc := strconv.Itoa(i)
		if first, dup := seen[id]; dup {
			details = append(details, domain.FieldError{
				Loc:  []string{"body", "ids", loc},
				Msg:  fmt.Sprintf("duplicate id %q (first at %d)", id, first),
				Type: "value_error.duplicate",
			})
			continue
		}
		seen[id] = i

		if len(embeddings[i]) != dim {
			details = append(details, domain.FieldError{
				Loc:  []string{"body", "embeddings", loc},
				Msg:  fmt.Sprintf("expected dimension %d, got %d", dim, len(embeddings[i])),
				Type: "value_error.dimension",
			})
			continue
		}

		var meta map[string]any
		if metadatas != nil {
			meta = metadatas[i]
		}
		doc, err := New(id, contents[i], embeddings[i], meta)
		if err != nil {
			details = append(details, domain.FieldError{
				Loc:  []string{"body", "ids", loc},
				Msg:  err.Error(),
				Type: "value_error",
			})
			continue
		}
		docs = append(docs, doc)
	}
	if len(details) > 0 {
		return nil, domain.NewValidation("invalid documents", details...)
	}
	return docs, nil
}

// Dimension returns the embedding length shared by docs, 0 for an empty slice.
func Dimension(docs []Document) int {
	if len(docs) == 0 {
		return 0
	}
	return len(docs[0].embedding)
}
