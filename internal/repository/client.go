package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/domain"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
	"github.com/kailas-cloud/vecgate/internal/metrics"
)

// Operation names used in metrics and logs.
const (
	opPing             = "ping"
	opCreateCollection = "create_collection"
	opGetCollection    = "get_collection"
	opListCollections  = "list_collections"
	opDeleteCollection = "delete_collection"
	opDeleteAll        = "delete_all_collections"
	opAddDocuments     = "add_documents"
	opGetDocuments     = "get_documents"
	opQuery            = "query"
	opDeleteEmbeddings = "delete_embeddings"
	opDeleteByMetadata = "delete_embeddings_by_metadata"
	opCollectionMeta   = "collection_metadata"
	opCountDocuments   = "count_documents"
)

const defaultOpTimeout = 30 * time.Second

// Options tunes the Client.
type Options struct {
	OpTimeout        time.Duration
	DefaultDimension int
}

// Client is the single entry point to the vector store. It resolves
// collections, maps backend failures into domain errors and bounds every
// call with the operation timeout. Safe for concurrent use.
type Client struct {
	backend Backend
	opts    Options
	logger  *zap.Logger

	// serializes fixing the dimension of a collection on first insert
	dimMu sync.Mutex
}

// NewClient wraps a backend.
func NewClient(b Backend, opts Options, logger *zap.Logger) *Client {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{backend: b, opts: opts, logger: logger}
}

// Backend returns the backend name.
func (c *Client) Backend() string { return c.backend.Name() }

// Close releases the backend.
func (c *Client) Close() error {
	if err := c.backend.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.backend.Name(), err)
	}
	return nil
}

// Ping checks backend availability.
func (c *Client) Ping(ctx context.Context) error {
	return c.run(ctx, opPing, "", c.backend.Ping)
}

// CreateCollection validates and stores a new collection. dim 0 falls back
// to the configured default dimension (0 = fixed by the first insert).
func (c *Client) CreateCollection(
	ctx context.Context, name string, metadata map[string]any, dim int,
) (domcol.Collection, error) {
	if dim == 0 {
		dim = c.opts.DefaultDimension
	}
	col, err := domcol.New(name, metadata, dim)
	if err != nil {
		return domcol.Collection{}, domain.NewValidation(err.Error())
	}

	err = c.run(ctx, opCreateCollection, name, func(ctx context.Context) error {
		return c.backend.CreateCollection(ctx, col)
	})
	if err != nil {
		return domcol.Collection{}, err
	}
	return col, nil
}

// GetCollection resolves a collection by name.
func (c *Client) GetCollection(ctx context.Context, name string) (domcol.Collection, error) {
	var col domcol.Collection
	err := c.run(ctx, opGetCollection, name, func(ctx context.Context) error {
		var err error
		col, err = c.backend.GetCollection(ctx, name)
		return err
	})
	return col, err
}

// ListCollections returns every collection with its document count.
func (c *Client) ListCollections(ctx context.Context) ([]domcol.Summary, error) {
	var out []domcol.Summary
	err := c.run(ctx, opListCollections, "", func(ctx context.Context) error {
		cols, err := c.backend.ListCollections(ctx)
		if err != nil {
			return err
		}
		out = make([]domcol.Summary, 0, len(cols))
		for _, col := range cols {
			n, err := c.backend.CountDocuments(ctx, col)
			if err != nil {
				return fmt.Errorf("count %s: %w", col.Name(), err)
			}
			out = append(out, domcol.Summary{Name: col.Name(), Metadata: col.Metadata(), DocumentCount: n})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.StoreCollections.WithLabelValues(c.backend.Name()).Set(float64(len(out)))
	return out, nil
}

// DeleteCollection removes a collection and all of its documents.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	return c.run(ctx, opDeleteCollection, name, func(ctx context.Context) error {
		return c.backend.DeleteCollection(ctx, name)
	})
}

// DeleteAllCollections removes every collection. The first failure aborts.
func (c *Client) DeleteAllCollections(ctx context.Context) error {
	return c.run(ctx, opDeleteAll, "", func(ctx context.Context) error {
		cols, err := c.backend.ListCollections(ctx)
		if err != nil {
			return err
		}
		for _, col := range cols {
			err := c.backend.DeleteCollection(ctx, col.Name())
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("delete collection %s: %w", col.Name(), err)
			}
		}
		return nil
	})
}

// AddDocuments stores a batch of documents. The first insert into a
// collection without a dimension fixes it. Ids already stored are skipped;
// the number of written documents is returned.
func (c *Client) AddDocuments(ctx context.Context, name string, docs []domdoc.Document) (int, error) {
	var added int
	err := c.run(ctx, opAddDocuments, name, func(ctx context.Context) error {
		col, err := c.backend.GetCollection(ctx, name)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}

		dim := domdoc.Dimension(docs)
		if !col.HasDimension() {
			if col, err = c.fixDimension(ctx, name, dim); err != nil {
				return err
			}
		}
		if dim != col.Dimension() {
			return dimensionError("embeddings", -1, dim, col.Dimension())
		}

		added, err = c.backend.AddDocuments(ctx, col, docs)
		return err
	})
	return added, err
}

// GetDocuments returns the raw contents of a collection.
func (c *Client) GetDocuments(ctx context.Context, name string, includeEmbeddings bool) (result.DocumentSet, error) {
	set := result.EmptyDocumentSet()
	err := c.run(ctx, opGetDocuments, name, func(ctx context.Context) error {
		col, err := c.backend.GetCollection(ctx, name)
		if err != nil {
			return err
		}
		set, err = c.backend.GetDocuments(ctx, col, includeEmbeddings)
		return err
	})
	return set, err
}

// QueryDocuments ranks the collection against every query vector. A
// collection without documents yields empty rows, not an error.
func (c *Client) QueryDocuments(
	ctx context.Context, name string, vectors [][]float32, n int, where filter.Expression,
) (result.QueryResult, error) {
	perQuery := make([][]result.Hit, len(vectors))
	err := c.run(ctx, opQuery, name, func(ctx context.Context) error {
		col, err := c.backend.GetCollection(ctx, name)
		if err != nil {
			return err
		}
		if !col.HasDimension() {
			return nil
		}
		for i, v := range vectors {
			if len(v) != col.Dimension() {
				return dimensionError("query_embeddings", i, len(v), col.Dimension())
			}
		}
		for i, v := range vectors {
			hits, err := c.backend.Query(ctx, col, v, n, where)
			if err != nil {
				return err
			}
			perQuery[i] = hits
		}
		return nil
	})
	if err != nil {
		return result.QueryResult{}, err
	}
	return result.NewQueryResult(perQuery), nil
}

// DeleteEmbeddings removes documents by id.
func (c *Client) DeleteEmbeddings(ctx context.Context, name string, ids []string) error {
	return c.run(ctx, opDeleteEmbeddings, name, func(ctx context.Context) error {
		col, err := c.backend.GetCollection(ctx, name)
		if err != nil {
			return err
		}
		return c.backend.DeleteDocuments(ctx, col, ids)
	})
}

// DeleteEmbeddingsByMetadata removes documents matching where and returns the count.
func (c *Client) DeleteEmbeddingsByMetadata(ctx context.Context, name string, where filter.Expression) (int, error) {
	var deleted int
	err := c.run(ctx, opDeleteByMetadata, name, func(ctx context.Context) error {
		col, err := c.backend.GetCollection(ctx, name)
		if err != nil {
			return err
		}
		deleted, err = c.backend.DeleteWhere(ctx, col, where)
		return err
	})
	return deleted, err
}

// GetCollectionMetadata returns the store-level descriptor of a collection.
func (c *Client) GetCollectionMetadata(ctx context.Context, name string) (domcol.Descriptor, error) {
	var d domcol.Descriptor
	err := c.run(ctx, opCollectionMeta, name, func(ctx context.Context) error {
		col, err := c.backend.GetCollection(ctx, name)
		if err != nil {
			return err
		}
		d = col.Describe(c.backend.Name())
		return nil
	})
	return d, err
}

// CountDocuments counts the documents of a collection.
func (c *Client) CountDocuments(ctx context.Context, name string) (int, error) {
	var n int
	err := c.run(ctx, opCountDocuments, name, func(ctx context.Context) error {
		col, err := c.backend.GetCollection(ctx, name)
		if err != nil {
			return err
		}
		n, err = c.backend.CountDocuments(ctx, col)
		return err
	})
	return n, err
}

// fixDimension sets the dimension of a collection that has none yet and
// returns the stored state. A concurrent insert may have fixed it first.
func (c *Client) fixDimension(ctx context.Context, name string, dim int) (domcol.Collection, error) {
	c.dimMu.Lock()
	defer c.dimMu.Unlock()

	col, err := c.backend.GetCollection(ctx, name)
	if err != nil {
		return domcol.Collection{}, err
	}
	if col.HasDimension() {
		return col, nil
	}

	col = col.WithDimension(dim)
	if err := c.backend.SetDimension(ctx, col); err != nil {
		return domcol.Collection{}, fmt.Errorf("set dimension: %w", err)
	}
	c.logger.Info("collection dimension fixed",
		zap.String("collection", name),
		zap.Int("dimension", dim),
	)
	return col, nil
}

// run executes fn under the operation timeout, maps its error and records
// metrics. collection is used for not-found and conflict messages.
func (c *Client) run(ctx context.Context, op, collection string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	start := time.Now()
	err := mapError(collection, fn(ctx))
	elapsed := time.Since(start)

	metrics.ObserveStore(c.backend.Name(), op, status(err), elapsed)

	if ce := c.logger.Check(zap.DebugLevel, "store_op"); ce != nil {
		fields := []zap.Field{
			zap.String("backend", c.backend.Name()),
			zap.String("op", op),
			zap.Duration("latency", elapsed),
		}
		if collection != "" {
			fields = append(fields, zap.String("collection", collection))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		ce.Write(fields...)
	}
	return err
}

func dimensionError(field string, index, got, want int) *domain.Error {
	loc := []string{"body", field}
	if index >= 0 {
		loc = append(loc, strconv.Itoa(index))
	}
	msg := fmt.Sprintf("embedding dimension %d does not match collection dimension %d", got, want)
	return &domain.Error{
		Kind:    domain.KindValidation,
		Message: msg,
		Details: []domain.FieldError{{Loc: loc, Msg: msg, Type: "value_error.dimension"}},
		Err:     domain.ErrVectorDimMismatch,
	}
}
