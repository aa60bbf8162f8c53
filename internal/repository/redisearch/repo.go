package redisearch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/kailas-cloud/vecgate/internal/db"
	"github.com/kailas-cloud/vecgate/internal/domain"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
)

// Backend names reported in logs, metrics and descriptors.
const (
	BackendName   = "redis"
	BackendValkey = "valkey"
)

// deleteBatch bounds the number of keys fetched and deleted per round-trip.
const deleteBatch = 500

// store is the consumer interface for the Redis backend (ISP).
//
//nolint:interfacebloat // one backend covers collection + document storage
type store interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchKeys(ctx context.Context, q *db.KeysQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	Close()
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores collections and documents in Redis/Valkey with FT vector indexes.
type Repo struct {
	store store
	algo  db.VectorAlgorithm
	hnsw  HNSWConfig
	name  string

	// valkey-search only answers FT.SEARCH with a KNN clause
	scanOnly bool
}

// New creates a Redis-backed repository.
func New(s store) *Repo {
	return &Repo{
		store: s,
		algo:  db.VectorHNSW,
		hnsw:  HNSWConfig{M: 16, EFConstruct: 200},
		name:  BackendName,
	}
}

// ForValkey switches counts and filtered deletes to walking document keys,
// since valkey-search rejects FT.SEARCH without KNN.
func (r *Repo) ForValkey() *Repo {
	r.name = BackendValkey
	r.scanOnly = true
	return r
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// WithAlgorithm selects the vector index algorithm.
func (r *Repo) WithAlgorithm(algo db.VectorAlgorithm) *Repo {
	if algo != "" {
		r.algo = algo
	}
	return r
}

// Name returns the backend name.
func (r *Repo) Name() string { return r.name }

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error { return r.store.Ping(ctx) }

// Close releases the client.
func (r *Repo) Close() error {
	r.store.Close()
	return nil
}

// CreateCollection stores the collection record (SET NX), then FT.CREATE when
// the dimension is already known. On FT.CREATE failure the record is removed.
func (r *Repo) CreateCollection(ctx context.Context, col domcol.Collection) error {
	data, err := encodeCollection(col)
	if err != nil {
		return err
	}

	created, err := r.store.SetNX(ctx, metaKey(col.Name()), data)
	if err != nil {
		return fmt.Errorf("set collection %s: %w", col.Name(), err)
	}
	if !created {
		return domain.ErrAlreadyExists
	}

	if !col.HasDimension() {
		return nil
	}
	if err := r.createIndex(ctx, col); err != nil {
		cleanupErr := r.store.Del(ctx, metaKey(col.Name()))
		return errors.Join(err, cleanupErr)
	}
	return nil
}

// GetCollection loads a collection record by name.
func (r *Repo) GetCollection(ctx context.Context, name string) (domcol.Collection, error) {
	data, err := r.store.Get(ctx, metaKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcol.Collection{}, domain.ErrNotFound
		}
		return domcol.Collection{}, fmt.Errorf("get collection %s: %w", name, err)
	}
	return decodeCollection(data)
}

// ListCollections returns all collections sorted by creation time.
func (r *Repo) ListCollections(ctx context.Context) ([]domcol.Collection, error) {
	keys, err := r.store.Scan(ctx, metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}

	cols := make([]domcol.Collection, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between SCAN and GET
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		col, err := decodeCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		cols = append(cols, col)
	}

	sort.Slice(cols, func(i, j int) bool { return cols[i].CreatedAt() < cols[j].CreatedAt() })
	return cols, nil
}

// SetDimension persists a newly fixed dimension and creates the FT index.
func (r *Repo) SetDimension(ctx context.Context, col domcol.Collection) error {
	data, err := encodeCollection(col)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, metaKey(col.Name()), data); err != nil {
		return fmt.Errorf("set collection %s: %w", col.Name(), err)
	}
	if err := r.createIndex(ctx, col); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return err
	}
	return nil
}

// DeleteCollection drops the index, every document hash and the record.
func (r *Repo) DeleteCollection(ctx context.Context, name string) error {
	if _, err := r.GetCollection(ctx, name); err != nil {
		return err
	}

	if err := r.store.DropIndex(ctx, indexName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}

	keys, err := r.store.Scan(ctx, docPrefix(name)+"*")
	if err != nil {
		return fmt.Errorf("scan documents %s: %w", name, err)
	}
	for chunk := range slices.Chunk(keys, deleteBatch) {
		if err := r.store.Del(ctx, chunk...); err != nil {
			return fmt.Errorf("del documents %s: %w", name, err)
		}
	}

	if err := r.store.Del(ctx, metaKey(name)); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}
	return nil
}

// CountDocuments counts indexed documents. A collection without an index is empty.
func (r *Repo) CountDocuments(ctx context.Context, col domcol.Collection) (int, error) {
	if r.scanOnly {
		keys, err := r.store.Scan(ctx, docPrefix(col.Name())+"*")
		if err != nil {
			return 0, fmt.Errorf("scan documents %s: %w", col.Name(), err)
		}
		return len(keys), nil
	}
	if !col.HasDimension() {
		return 0, nil
	}
	n, err := r.store.SearchCount(ctx, indexName(col.Name()), "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count %s: %w", col.Name(), err)
	}
	return n, nil
}

// AddDocuments stores documents whose ids are not present yet and returns
// how many were written.
func (r *Repo) AddDocuments(ctx context.Context, col domcol.Collection, docs []domdoc.Document) (int, error) {
	keys := make([]string, len(docs))
	for i := range docs {
		keys[i] = docKey(col.Name(), docs[i].ID())
	}

	exists, err := r.store.ExistsMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("check exists %s: %w", col.Name(), err)
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for i := range docs {
		if exists[i] {
			continue
		}
		fields, err := buildHashFields(&docs[i])
		if err != nil {
			return 0, err
		}
		items = append(items, db.HashSetItem{Key: keys[i], Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return 0, fmt.Errorf("hset documents %s: %w", col.Name(), err)
	}
	return len(items), nil
}

// GetDocuments returns every document of the collection ordered by id.
func (r *Repo) GetDocuments(ctx context.Context, col domcol.Collection, includeEmbeddings bool) (result.DocumentSet, error) {
	set := result.EmptyDocumentSet()

	keys, err := r.store.Scan(ctx, docPrefix(col.Name())+"*")
	if err != nil {
		return set, fmt.Errorf("scan documents %s: %w", col.Name(), err)
	}
	if len(keys) == 0 {
		return set, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return set, fmt.Errorf("hgetall documents %s: %w", col.Name(), err)
	}

	docs := make([]domdoc.Document, 0, len(hashes))
	for _, m := range hashes {
		if len(m) == 0 {
			continue
		}
		docs = append(docs, parseHashFields(m))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID() < docs[j].ID() })

	for i := range docs {
		d := &docs[i]
		set.Append(d.ID(), d.Content(), d.Metadata(), d.Embedding(), includeEmbeddings)
	}
	return set, nil
}

// Query runs a filtered KNN search for one vector.
func (r *Repo) Query(
	ctx context.Context, col domcol.Collection, vector []float32, n int, where filter.Expression,
) ([]result.Hit, error) {
	if !col.HasDimension() {
		return nil, nil
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(col.Name()),
		VectorField:  fieldVector,
		TagField:     fieldTags,
		Filters:      where,
		Vector:       vector,
		K:            n,
		ReturnFields: []string{fieldID, fieldContent, fieldMetadata},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("knn %s: %w", col.Name(), err)
	}

	hits := make([]result.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		doc := parseHashFields(e.Fields)
		id := doc.ID()
		if id == "" {
			id = strings.TrimPrefix(e.Key, docPrefix(col.Name()))
		}
		hits = append(hits, result.Hit{
			ID:       id,
			Distance: e.Score,
			Content:  doc.Content(),
			Metadata: doc.Metadata(),
		})
	}
	return hits, nil
}

// DeleteDocuments removes documents by id; unknown ids are ignored.
func (r *Repo) DeleteDocuments(ctx context.Context, col domcol.Collection, ids []string) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(col.Name(), id)
	}
	for chunk := range slices.Chunk(keys, deleteBatch) {
		if err := r.store.Del(ctx, chunk...); err != nil {
			return fmt.Errorf("del documents %s: %w", col.Name(), err)
		}
	}
	return nil
}

// DeleteWhere removes every document matching the filter and returns the count.
func (r *Repo) DeleteWhere(ctx context.Context, col domcol.Collection, where filter.Expression) (int, error) {
	if r.scanOnly {
		return r.deleteWhereScan(ctx, col, where)
	}
	if !col.HasDimension() {
		return 0, nil
	}

	deleted := 0
	for {
		res, err := r.store.SearchKeys(ctx, &db.KeysQuery{
			IndexName: indexName(col.Name()),
			TagField:  fieldTags,
			Filters:   where,
			Limit:     deleteBatch,
		})
		if err != nil {
			if errors.Is(err, db.ErrIndexNotFound) {
				return deleted, nil
			}
			return deleted, fmt.Errorf("search %s: %w", col.Name(), err)
		}
		if len(res.Entries) == 0 {
			return deleted, nil
		}

		keys := make([]string, len(res.Entries))
		for i, e := range res.Entries {
			keys[i] = e.Key
		}
		if err := r.store.Del(ctx, keys...); err != nil {
			return deleted, fmt.Errorf("del documents %s: %w", col.Name(), err)
		}
		deleted += len(keys)

		if len(res.Entries) < deleteBatch {
			return deleted, nil
		}
	}
}

// deleteWhereScan evaluates the filter in Go over every document hash.
func (r *Repo) deleteWhereScan(ctx context.Context, col domcol.Collection, where filter.Expression) (int, error) {
	keys, err := r.store.Scan(ctx, docPrefix(col.Name())+"*")
	if err != nil {
		return 0, fmt.Errorf("scan documents %s: %w", col.Name(), err)
	}

	deleted := 0
	for chunk := range slices.Chunk(keys, deleteBatch) {
		hashes, err := r.store.HGetAllMulti(ctx, chunk)
		if err != nil {
			return deleted, fmt.Errorf("hgetall documents %s: %w", col.Name(), err)
		}
		matched := make([]string, 0, len(chunk))
		for i, m := range hashes {
			if len(m) == 0 {
				continue
			}
			d := parseHashFields(m)
			if where.Matches(d.Metadata()) {
				matched = append(matched, chunk[i])
			}
		}
		if len(matched) == 0 {
			continue
		}
		if err := r.store.Del(ctx, matched...); err != nil {
			return deleted, fmt.Errorf("del documents %s: %w", col.Name(), err)
		}
		deleted += len(matched)
	}
	return deleted, nil
}

func (r *Repo) createIndex(ctx context.Context, col domcol.Collection) error {
	def, err := buildIndex(col, r.algo, r.hnsw)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// Key patterns: vecgate:col:{name}, vecgate:doc:{name}:{id}, vecgate:{name}:idx

func metaKey(name string) string {
	return fmt.Sprintf("%scol:%s", domain.KeyPrefix, name)
}

func docPrefix(name string) string {
	return fmt.Sprintf("%sdoc:%s:", domain.KeyPrefix, name)
}

func docKey(name, id string) string {
	return docPrefix(name) + id
}

func indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}
