package vecgate

import (
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
)

// Space is the distance metric of a collection.
type Space string

// Space constants.
const (
	SpaceL2     Space = Space(domcol.SpaceL2)
	SpaceCosine Space = Space(domcol.SpaceCosine)
	SpaceIP     Space = Space(domcol.SpaceIP)
)

// CollectionInfo describes a stored collection.
type CollectionInfo struct {
	ID        string
	Name      string
	Metadata  map[string]any
	Dimension int // 0 until fixed by the first insert
	Space     Space
	CreatedAt int64 // unix millis
	Backend   string
}

// CollectionSummary is a collection listing entry.
type CollectionSummary struct {
	Name          string
	Metadata      map[string]any
	DocumentCount int
}

// Document is a stored text with its embedding.
type Document struct {
	ID        string
	Content   string
	Embedding []float32 // empty on reads without embeddings
	Metadata  map[string]any
}

// Hit is one ranked query match.
type Hit struct {
	ID       string
	Distance float64
	Content  string
	Metadata map[string]any
}

func fromCollection(c domcol.Collection) CollectionInfo {
	return CollectionInfo{
		ID:        c.ID(),
		Name:      c.Name(),
		Metadata:  c.Metadata(),
		Dimension: c.Dimension(),
		Space:     Space(c.Space()),
		CreatedAt: c.CreatedAt(),
	}
}

func fromDescriptor(d domcol.Descriptor) CollectionInfo {
	info := CollectionInfo{
		ID:        d.ID,
		Name:      d.Name,
		Metadata:  d.Metadata,
		Space:     Space(d.Space),
		CreatedAt: d.CreatedAt,
		Backend:   d.Backend,
	}
	if d.Dimension != nil {
		info.Dimension = *d.Dimension
	}
	return info
}

func fromDocumentSet(set result.DocumentSet) []Document {
	docs := make([]Document, len(set.IDs))
	for i, id := range set.IDs {
		docs[i] = Document{ID: id, Content: set.Documents[i], Metadata: set.Metadatas[i]}
		if i < len(set.Embeddings) {
			docs[i].Embedding = set.Embeddings[i]
		}
	}
	return docs
}

func fromQueryResult(r result.QueryResult) [][]Hit {
	rows := make([][]Hit, len(r.IDs))
	for i := range r.IDs {
		rows[i] = make([]Hit, len(r.IDs[i]))
		for j, id := range r.IDs[i] {
			rows[i][j] = Hit{
				ID:       id,
				Distance: r.Distances[i][j],
				Content:  r.Documents[i][j],
				Metadata: r.Metadatas[i][j],
			}
		}
	}
	return rows
}
