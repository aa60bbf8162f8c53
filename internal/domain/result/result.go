package result

// Hit is a single ranked query match.
type Hit struct {
	ID       string
	Distance float64
	Content  string
	Metadata map[string]any
}

// QueryResult holds one ranked list per query vector, column-oriented
// in the shape clients of the original API expect.
type QueryResult struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// NewQueryResult pivots per-query hit lists into the column layout.
// A nil or empty hit list becomes an empty (not nil) row.
func NewQueryResult(perQuery [][]Hit) QueryResult {
	r := QueryResult{
		IDs:       make([][]string, len(perQuery)),
		Distances: make([][]float64, len(perQuery)),
		Documents: make([][]string, len(perQuery)),
		Metadatas: make([][]map[string]any, len(perQuery)),
	}
	for i, hits := range perQuery {
		r.IDs[i] = make([]string, len(hits))
		r.Distances[i] = make([]float64, len(hits))
		r.Documents[i] = make([]string, len(hits))
		r.Metadatas[i] = make([]map[string]any, len(hits))
		for j, h := range hits {
			r.IDs[i][j] = h.ID
			r.Distances[i][j] = h.Distance
			r.Documents[i][j] = h.Content
			meta := h.Metadata
			if meta == nil {
				meta = map[string]any{}
			}
			r.Metadatas[i][j] = meta
		}
	}
	return r
}

// Len returns the number of hits for query i.
func (r QueryResult) Len(i int) int {
	if i < 0 || i >= len(r.IDs) {
		return 0
	}
	return len(r.IDs[i])
}

// DocumentSet is the raw contents of a collection.
type DocumentSet struct {
	IDs        []string         `json:"ids"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
	Embeddings [][]float32      `json:"embeddings,omitempty"`
}

// Append adds one document. The embedding is kept only when withEmbedding is set.
func (s *DocumentSet) Append(id, content string, metadata map[string]any, embedding []float32, withEmbedding bool) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	s.IDs = append(s.IDs, id)
	s.Documents = append(s.Documents, content)
	s.Metadatas = append(s.Metadatas, metadata)
	if withEmbedding {
		s.Embeddings = append(s.Embeddings, embedding)
	}
}

// EmptyDocumentSet returns a set whose lists encode as [] rather than null.
func EmptyDocumentSet() DocumentSet {
	return DocumentSet{IDs: []string{}, Documents: []string{}, Metadatas: []map[string]any{}}
}
