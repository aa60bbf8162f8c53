package chi

import (
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	"github.com/kailas-cloud/vecgate/internal/metrics"
	collectionuc "github.com/kailas-cloud/vecgate/internal/usecase/collection"
	documentuc "github.com/kailas-cloud/vecgate/internal/usecase/document"
	healthuc "github.com/kailas-cloud/vecgate/internal/usecase/health"
)

// Server serves the /chroma API on top of the collection and document services.
type Server struct {
	collections *collectionuc.Service
	documents   *documentuc.Service
	health      *healthuc.Service
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	collections *collectionuc.Service,
	documents *documentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		collections: collections,
		documents:   documents,
		health:      health,
		logger:      logger,
	}
}

// RouterOptions configures the middleware chain.
type RouterOptions struct {
	APIKeys  []string
	Envelope bool
}

// NewRouter builds the full handler: middleware chain, API routes and
// the operational routes (/, /docs, /openapi.json, /health, /metrics).
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chirouter.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	if opts.Envelope {
		r.Use(EnvelopeMiddleware())
	}
	r.Use(JSONRecoverer(s.logger))
	r.Use(BearerAuthMiddleware(opts.APIKeys))

	r.Get("/", s.Root)
	r.Get("/openapi.json", s.OpenAPI)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", docsHandler())
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/chroma", func(r chirouter.Router) {
		r.Post("/create", s.CreateCollection)
		r.Get("/get", s.GetCollection)
		r.Delete("/delete", s.DeleteCollection)
		r.Get("/list", s.ListCollections)
		r.Post("/add-documents", s.AddDocuments)
		r.Post("/query", s.QueryDocuments)
		r.Delete("/delete-embeddings", s.DeleteEmbeddings)
		r.Delete("/delete-embeddings-by-metadata", s.DeleteEmbeddingsByMetadata)
		r.Get("/metadata", s.GetCollectionMetadata)
		r.Delete("/delete-all-collection", s.DeleteAllCollections)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

// CreateCollection handles POST /chroma/create.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	dim := 0
	if req.Dim != nil {
		dim = *req.Dim
	}
	if _, err := s.collections.Create(r.Context(), req.CollectionName, req.Metadata, dim); err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Collection '%s' created successfully.", req.CollectionName),
	})
}

// GetCollection handles GET /chroma/get.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	var (
		name              string
		includeEmbeddings *bool
	)
	if err := bindQuery(r, "collection_name", true, &name); err != nil {
		handleError(w, r, err)
		return
	}
	if err := bindQuery(r, "include_embeddings", false, &includeEmbeddings); err != nil {
		handleError(w, r, err)
		return
	}

	set, err := s.documents.Get(r.Context(), name, includeEmbeddings != nil && *includeEmbeddings)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// DeleteCollection handles DELETE /chroma/delete.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := bindQuery(r, "collection_name", true, &name); err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.collections.Delete(r.Context(), name); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Collection '%s' deleted successfully.", name),
	})
}

// ListCollections handles GET /chroma/list.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cols == nil {
		cols = []domcol.Summary{}
	}
	writeJSON(w, http.StatusOK, listCollectionsResponse{Collections: cols})
}

// AddDocuments handles POST /chroma/add-documents.
func (s *Server) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var req addDocumentsRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	added, err := s.documents.Add(r.Context(), documentuc.AddRequest{
		Collection: req.CollectionName,
		IDs:        req.IDs,
		Documents:  req.Documents,
		Embeddings: req.Embeddings,
		Metadatas:  req.Metadatas,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	if skipped := len(req.IDs) - added; skipped > 0 {
		s.logger.Debug("existing ids skipped",
			zap.String("collection", req.CollectionName),
			zap.Int("skipped", skipped),
		)
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Documents added to collection '%s' successfully.", req.CollectionName),
	})
}

// QueryDocuments handles POST /chroma/query.
func (s *Server) QueryDocuments(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	n := 0
	if req.NResults != nil {
		n = *req.NResults
	}
	res, err := s.documents.Query(r.Context(), documentuc.QueryRequest{
		Collection:      req.CollectionName,
		QueryEmbeddings: req.QueryEmbeddings,
		NResults:        n,
		Where:           req.Where,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Result: res})
}

// DeleteEmbeddings handles DELETE /chroma/delete-embeddings.
func (s *Server) DeleteEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req deleteEmbeddingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.documents.Delete(r.Context(), req.CollectionName, req.IDs); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Embeddings deleted from collection '%s'.", req.CollectionName),
	})
}

// DeleteEmbeddingsByMetadata handles DELETE /chroma/delete-embeddings-by-metadata.
func (s *Server) DeleteEmbeddingsByMetadata(w http.ResponseWriter, r *http.Request) {
	var req deleteByMetadataRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	deleted, err := s.documents.DeleteByMetadata(r.Context(), req.CollectionName, req.Metadata)
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.logger.Debug("embeddings deleted by metadata",
		zap.String("collection", req.CollectionName),
		zap.Int("deleted", deleted),
	)
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Embeddings deleted from collection '%s' based on metadata.", req.CollectionName),
	})
}

// GetCollectionMetadata handles GET /chroma/metadata.
func (s *Server) GetCollectionMetadata(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := bindQuery(r, "collection_name", true, &name); err != nil {
		handleError(w, r, err)
		return
	}

	d, err := s.collections.Metadata(r.Context(), name)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteAllCollections handles DELETE /chroma/delete-all-collection.
func (s *Server) DeleteAllCollections(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.DeleteAll(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "All collections deleted successfully."})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:  string(report.Status),
		Backend: report.Backend,
		Checks:  checks,
	})
}
