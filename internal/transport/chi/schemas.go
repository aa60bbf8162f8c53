package chi

import (
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
)

// Body requests accept name as an alias of collection_name.
func resolveName(collectionName, alias string) string {
	if collectionName == "" {
		return alias
	}
	return collectionName
}

type createCollectionRequest struct {
	CollectionName string         `json:"collection_name" validate:"required"`
	Name           string         `json:"name"`
	Metadata       map[string]any `json:"metadata"`
	Dim            *int           `json:"dim" validate:"omitnil,min=0"`
}

func (r *createCollectionRequest) normalize() {
	r.CollectionName = resolveName(r.CollectionName, r.Name)
}

type addDocumentsRequest struct {
	CollectionName string           `json:"collection_name" validate:"required"`
	Name           string           `json:"name"`
	IDs            []string         `json:"ids" validate:"required,min=1"`
	Documents      []string         `json:"documents" validate:"required"`
	Embeddings     [][]float32      `json:"embeddings" validate:"required,dive,min=1"`
	Metadatas      []map[string]any `json:"metadatas"`
}

func (r *addDocumentsRequest) normalize() {
	r.CollectionName = resolveName(r.CollectionName, r.Name)
}

type queryRequest struct {
	CollectionName  string         `json:"collection_name" validate:"required"`
	Name            string         `json:"name"`
	QueryEmbeddings [][]float32    `json:"query_embeddings" validate:"required,min=1,dive,min=1"`
	NResults        *int           `json:"n_results" validate:"omitnil,min=1"`
	Where           map[string]any `json:"where"`
}

func (r *queryRequest) normalize() {
	r.CollectionName = resolveName(r.CollectionName, r.Name)
}

type deleteEmbeddingsRequest struct {
	CollectionName string   `json:"collection_name" validate:"required"`
	Name           string   `json:"name"`
	IDs            []string `json:"ids" validate:"required,min=1"`
}

func (r *deleteEmbeddingsRequest) normalize() {
	r.CollectionName = resolveName(r.CollectionName, r.Name)
}

type deleteByMetadataRequest struct {
	CollectionName string         `json:"collection_name" validate:"required"`
	Name           string         `json:"name"`
	Metadata       map[string]any `json:"metadata" validate:"required"`
}

func (r *deleteByMetadataRequest) normalize() {
	r.CollectionName = resolveName(r.CollectionName, r.Name)
}

type messageResponse struct {
	Message string `json:"message"`
}

type listCollectionsResponse struct {
	Collections []domcol.Summary `json:"collections"`
}

type queryResponse struct {
	Result result.QueryResult `json:"result"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Backend string            `json:"backend"`
	Checks  map[string]string `json:"checks"`
}
