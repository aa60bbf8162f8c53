package redisearch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/vecgate/internal/db"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
)

// Hash fields of a stored document.
const (
	fieldID       = "__id"
	fieldContent  = "__content"
	fieldMetadata = "__metadata"
	fieldTags     = "__mtags"
	fieldVector   = "vector"
)

// collectionRecord is the JSON value stored at the collection meta key.
type collectionRecord struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata"`
	Dimension int            `json:"dimension"`
	CreatedAt int64          `json:"created_at"`
}

func encodeCollection(col domcol.Collection) ([]byte, error) {
	data, err := json.Marshal(collectionRecord{
		ID:        col.ID(),
		Name:      col.Name(),
		Metadata:  col.Metadata(),
		Dimension: col.Dimension(),
		CreatedAt: col.CreatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal collection: %w", err)
	}
	return data, nil
}

func decodeCollection(data []byte) (domcol.Collection, error) {
	var rec collectionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domcol.Collection{}, fmt.Errorf("unmarshal collection: %w", err)
	}
	return domcol.Reconstruct(rec.ID, rec.Name, rec.Metadata, rec.Dimension, rec.CreatedAt), nil
}

// buildHashFields converts a domain Document into a flat map for HSET.
func buildHashFields(doc *domdoc.Document) (map[string]string, error) {
	meta, err := json.Marshal(doc.Metadata())
	if err != nil {
		return nil, fmt.Errorf("marshal metadata of %s: %w", doc.ID(), err)
	}
	tags, err := metadataTokens(doc.Metadata())
	if err != nil {
		return nil, fmt.Errorf("metadata of %s: %w", doc.ID(), err)
	}
	return map[string]string{
		fieldID:       doc.ID(),
		fieldContent:  doc.Content(),
		fieldMetadata: string(meta),
		fieldTags:     strings.Join(tags, ","),
		fieldVector:   string(db.EncodeVector(doc.Embedding())),
	}, nil
}

// parseHashFields converts a flat hash map back into a domain Document.
func parseHashFields(m map[string]string) domdoc.Document {
	var meta map[string]any
	if raw := m[fieldMetadata]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &meta)
	}
	return domdoc.Reconstruct(m[fieldID], m[fieldContent], db.DecodeVector([]byte(m[fieldVector])), meta)
}

// metadataTokens returns the sorted TAG tokens for every metadata entry.
func metadataTokens(meta map[string]any) ([]string, error) {
	tokens := make([]string, 0, len(meta))
	for k, raw := range meta {
		v, err := filter.NewValue(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		tokens = append(tokens, db.MetadataToken(k, v))
	}
	sort.Strings(tokens)
	return tokens, nil
}
