package sqlvec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver

	"github.com/kailas-cloud/vecgate/internal/db"
	"github.com/kailas-cloud/vecgate/internal/domain"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	domdoc "github.com/kailas-cloud/vecgate/internal/domain/document"
	"github.com/kailas-cloud/vecgate/internal/domain/filter"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
	"github.com/kailas-cloud/vecgate/internal/repository/sqlvec/migrations"
)

// Backend names.
const (
	NameSQLite   = "sqlite"
	NamePostgres = "postgres"
)

// deleteBatch bounds the number of ids per DELETE statement.
const deleteBatch = 500

// Repo stores collections and documents in SQL tables and ranks
// query results in process.
type Repo struct {
	db      *sql.DB
	dialect string
}

// OpenSQLite opens (and migrates) a SQLite database file. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string) (*Repo, error) {
	if path == "" {
		path = "data/vecgate.db"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer; also keeps ":memory:" on one database
	conn.SetMaxOpenConns(1)

	r := &Repo{db: conn, dialect: NameSQLite}
	if err := r.migrate(ctx, migrations.SQLite, "sqlite/001_init.sql"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return r, nil
}

// OpenPostgres connects to PostgreSQL, waits up to ready for it to answer
// and applies the schema.
func OpenPostgres(ctx context.Context, dsn string, ready time.Duration) (*Repo, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	r := &Repo{db: conn, dialect: NamePostgres}
	if err := db.WaitFor(ctx, ready, r.Ping); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := r.migrate(ctx, migrations.Postgres, "postgres/001_init.sql"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) migrate(ctx context.Context, fs interface{ ReadFile(string) ([]byte, error) }, file string) error {
	data, err := fs.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

// Name returns the backend name.
func (r *Repo) Name() string { return r.dialect }

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", r.dialect, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Repo) Close() error { return r.db.Close() }

// CreateCollection inserts the collection row; a taken name is ErrAlreadyExists.
func (r *Repo) CreateCollection(ctx context.Context, col domcol.Collection) error {
	meta, err := json.Marshal(col.Metadata())
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO collections (id, name, metadata, dimension, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING`),
		col.ID(), col.Name(), string(meta), col.Dimension(), col.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("insert collection %s: %w", col.Name(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert collection %s: %w", col.Name(), err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// GetCollection loads a collection by name.
func (r *Repo) GetCollection(ctx context.Context, name string) (domcol.Collection, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT id, name, metadata, dimension, created_at
		FROM collections WHERE name = ?`), name)
	col, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domcol.Collection{}, domain.ErrNotFound
	}
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection %s: %w", name, err)
	}
	return col, nil
}

// ListCollections returns all collections ordered by creation time.
func (r *Repo) ListCollections(ctx context.Context) ([]domcol.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, metadata, dimension, created_at
		FROM collections ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var cols []domcol.Collection
	for rows.Next() {
		col, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return cols, nil
}

// SetDimension persists a newly fixed dimension.
func (r *Repo) SetDimension(ctx context.Context, col domcol.Collection) error {
	_, err := r.db.ExecContext(ctx, r.rebind(`UPDATE collections SET dimension = ? WHERE id = ?`),
		col.Dimension(), col.ID())
	if err != nil {
		return fmt.Errorf("set dimension %s: %w", col.Name(), err)
	}
	return nil
}

// DeleteCollection removes the collection and its documents in one transaction.
func (r *Repo) DeleteCollection(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, r.rebind(`SELECT id FROM collections WHERE name = ?`), name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get collection %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM documents WHERE collection_id = ?`), id); err != nil {
		return fmt.Errorf("delete documents %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM collections WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountDocuments counts the documents of a collection.
func (r *Repo) CountDocuments(ctx context.Context, col domcol.Collection) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*) FROM documents WHERE collection_id = ?`),
		col.ID()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", col.Name(), err)
	}
	return n, nil
}

// AddDocuments inserts documents whose ids are not stored yet and returns
// how many rows were written.
func (r *Repo) AddDocuments(ctx context.Context, col domcol.Collection, docs []domdoc.Document) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.rebind(`
		INSERT INTO documents (collection_id, id, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection_id, id) DO NOTHING`))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for i := range docs {
		d := &docs[i]
		meta, err := json.Marshal(d.Metadata())
		if err != nil {
			return 0, fmt.Errorf("marshal metadata of %s: %w", d.ID(), err)
		}
		res, err := stmt.ExecContext(ctx, col.ID(), d.ID(), d.Content(), db.EncodeVector(d.Embedding()), string(meta))
		if err != nil {
			return 0, fmt.Errorf("insert document %s: %w", d.ID(), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// GetDocuments returns every document of the collection ordered by id.
func (r *Repo) GetDocuments(ctx context.Context, col domcol.Collection, includeEmbeddings bool) (result.DocumentSet, error) {
	set := result.EmptyDocumentSet()
	err := r.eachDocument(ctx, col, func(d domdoc.Document) {
		set.Append(d.ID(), d.Content(), d.Metadata(), d.Embedding(), includeEmbeddings)
	})
	if err != nil {
		return result.EmptyDocumentSet(), err
	}
	return set, nil
}

// Query ranks every matching document against vector and returns the n closest.
func (r *Repo) Query(
	ctx context.Context, col domcol.Collection, vector []float32, n int, where filter.Expression,
) ([]result.Hit, error) {
	score := newScorer(col.Space(), vector)

	var hits []result.Hit
	err := r.eachDocument(ctx, col, func(d domdoc.Document) {
		if len(d.Embedding()) != len(vector) || !where.Matches(d.Metadata()) {
			return
		}
		hits = append(hits, result.Hit{
			ID:       d.ID(),
			Distance: score(d.Embedding()),
			Content:  d.Content(),
			Metadata: d.Metadata(),
		})
	})
	if err != nil {
		return nil, err
	}
	return topK(hits, n), nil
}

// DeleteDocuments removes documents by id; unknown ids are ignored.
func (r *Repo) DeleteDocuments(ctx context.Context, col domcol.Collection, ids []string) error {
	_, err := r.deleteIDs(ctx, col, ids)
	return err
}

// DeleteWhere removes every document matching the filter and returns the count.
func (r *Repo) DeleteWhere(ctx context.Context, col domcol.Collection, where filter.Expression) (int, error) {
	var ids []string
	err := r.eachDocument(ctx, col, func(d domdoc.Document) {
		if where.Matches(d.Metadata()) {
			ids = append(ids, d.ID())
		}
	})
	if err != nil {
		return 0, err
	}
	return r.deleteIDs(ctx, col, ids)
}

func (r *Repo) deleteIDs(ctx context.Context, col domcol.Collection, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleted := 0
	for chunk := range slices.Chunk(ids, deleteBatch) {
		q := `DELETE FROM documents WHERE collection_id = ? AND id IN (?` +
			strings.Repeat(", ?", len(chunk)-1) + `)`
		args := make([]any, 0, len(chunk)+1)
		args = append(args, col.ID())
		for _, id := range chunk {
			args = append(args, id)
		}
		res, err := tx.ExecContext(ctx, r.rebind(q), args...)
		if err != nil {
			return 0, fmt.Errorf("delete documents %s: %w", col.Name(), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return deleted, nil
}

// eachDocument streams the collection's documents in id order.
func (r *Repo) eachDocument(ctx context.Context, col domcol.Collection, fn func(domdoc.Document)) error {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT id, content, embedding, metadata
		FROM documents WHERE collection_id = ? ORDER BY id`), col.ID())
	if err != nil {
		return fmt.Errorf("query documents %s: %w", col.Name(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, content, metaJSON string
			emb                   []byte
		)
		if err := rows.Scan(&id, &content, &emb, &metaJSON); err != nil {
			return fmt.Errorf("scan document: %w", err)
		}
		meta, err := decodeMetadata(metaJSON)
		if err != nil {
			return fmt.Errorf("document %s: %w", id, err)
		}
		fn(domdoc.Reconstruct(id, content, db.DecodeVector(emb), meta))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate documents %s: %w", col.Name(), err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(s rowScanner) (domcol.Collection, error) {
	var (
		id, name, metaJSON string
		dim                int
		createdAt          int64
	)
	if err := s.Scan(&id, &name, &metaJSON, &dim, &createdAt); err != nil {
		return domcol.Collection{}, err
	}
	meta, err := decodeMetadata(metaJSON)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("collection %s: %w", name, err)
	}
	return domcol.Reconstruct(id, name, meta, dim, createdAt), nil
}

func decodeMetadata(raw string) (map[string]any, error) {
	meta := map[string]any{}
	if raw == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, nil
}

// rebind rewrites ? placeholders into $n for postgres.
func (r *Repo) rebind(q string) string {
	if r.dialect != NamePostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] != '?' {
			b.WriteByte(q[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
