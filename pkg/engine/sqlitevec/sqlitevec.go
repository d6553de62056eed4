// Package sqlitevec provides a SQLite-backed local engine using sqlite-vec.
//
// It implements the full engine call interface in-process, which is what
// eval mode runs against when no remote engine is deployed. Each index gets
// its own vec0 virtual table plus a metadata table, tied together by a
// catalog of index descriptors.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
)

// Config holds configuration for the SQLite vec engine.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// Engine implements engine.Engine using SQLite with sqlite-vec.
type Engine struct {
	db     *sql.DB
	logger *zap.Logger
}

// indexNamePattern constrains index names because they become table name
// suffixes; anything else cannot be quoted safely into DDL.
var indexNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// NewEngine creates a local sqlite-vec engine.
func NewEngine(c Config, logger *zap.Logger) (*Engine, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS indexes (
			name TEXT PRIMARY KEY,
			dim INTEGER NOT NULL,
			index_type TEXT NOT NULL,
			nlist INTEGER NOT NULL DEFAULT 0,
			nprobe INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index catalog: %w", err)
	}

	logger.Info("sqlite-vec engine initialized",
		zap.String("db_path", c.DBPath),
		zap.String("vec_version", vecVersion),
	)

	return &Engine{
		db:     db,
		logger: logger,
	}, nil
}

// CreateIndex registers the descriptor in the catalog and creates the
// per-index tables.
func (e *Engine) CreateIndex(ctx context.Context, desc engine.IndexDescriptor) (any, error) {
	if !indexNamePattern.MatchString(desc.Name) {
		return nil, fmt.Errorf("index name %q must match %s", desc.Name, indexNamePattern)
	}

	if _, err := e.lookup(ctx, desc.Name); err == nil {
		return nil, fmt.Errorf("%w: %q", engine.ErrIndexExists, desc.Name)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexes(name, dim, index_type, nlist, nprobe) VALUES (?, ?, ?, ?, ?)`,
		desc.Name, desc.Dim, desc.IndexParams.IndexType,
		desc.IndexParams.Nlist, desc.IndexParams.DefaultNprobe,
	)
	if err != nil {
		return nil, fmt.Errorf("registering index %q: %w", desc.Name, err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE %s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			metadata TEXT
		)
	`, metaTable(desc.Name)))
	if err != nil {
		return nil, fmt.Errorf("creating metadata table for %q: %w", desc.Name, err)
	}

	// vec0 DDL cannot run inside the transaction (virtual table), so the
	// catalog commit happens first; a failed vec0 create leaves a
	// recreatable index, not a corrupt one.
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing index %q: %w", desc.Name, err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE %s USING vec0(embedding float[%d])`,
		embTable(desc.Name), desc.Dim,
	)
	if _, err := e.db.ExecContext(ctx, createVec); err != nil {
		return nil, fmt.Errorf("creating vec0 table for %q: %w", desc.Name, err)
	}

	e.logger.Info("created index",
		zap.String("index", desc.Name),
		zap.Int("dim", desc.Dim),
		zap.String("index_type", desc.IndexParams.IndexType),
	)

	return map[string]any{
		"name":       desc.Name,
		"dim":        desc.Dim,
		"index_type": desc.IndexParams.IndexType,
	}, nil
}

// ListIndexes returns catalog index names.
func (e *Engine) ListIndexes(ctx context.Context) (any, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT name FROM indexes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning index name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating indexes: %w", err)
	}

	return names, nil
}

// DescribeIndex returns the stored descriptor and current vector count.
func (e *Engine) DescribeIndex(ctx context.Context, name string) (any, error) {
	desc, err := e.lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	var count int64
	err = e.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, metaTable(name)),
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("counting vectors in %q: %w", name, err)
	}

	return map[string]any{
		"name":         desc.Name,
		"dim":          desc.Dim,
		"index_params": desc.IndexParams,
		"count":        count,
	}, nil
}

// Insert stores the batch with optional aligned metadata and returns the
// generated IDs in batch order. Dimension mismatches are rejected here, on
// the engine side of the boundary.
func (e *Engine) Insert(ctx context.Context, indexName string, vectors canon.Batch, metadata []any) (any, error) {
	desc, err := e.lookup(ctx, indexName)
	if err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, len(vectors))
	for i, vec := range vectors {
		if len(vec) != desc.Dim {
			return nil, fmt.Errorf("vector %d has dim %d, index %q expects %d", i, len(vec), indexName, desc.Dim)
		}

		var metaJSON any
		if metadata != nil {
			encoded, err := json.Marshal(metadata[i])
			if err != nil {
				return nil, fmt.Errorf("encoding metadata for vector %d: %w", i, err)
			}
			metaJSON = string(encoded)
		}

		id := uuid.NewString()
		ids[i] = id

		result, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s(doc_id, metadata) VALUES (?, ?)`, metaTable(indexName)),
			id, metaJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting metadata row %d: %w", i, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting rowid for vector %d: %w", i, err)
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, embTable(indexName)),
			rowID, serializeFloat32(vec),
		); err != nil {
			return nil, fmt.Errorf("inserting embedding %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	e.logger.Debug("inserted vectors",
		zap.String("index", indexName),
		zap.Int("count", len(vectors)),
	)

	return ids, nil
}

// Search runs a KNN query per batch vector and returns, per query, topK
// {id, score, metadata} items. A single-query batch returns the flat list.
func (e *Engine) Search(ctx context.Context, indexName string, query canon.Batch, topK int) (any, error) {
	if _, err := e.lookup(ctx, indexName); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}

	perQuery := make([]any, len(query))
	for qi, vec := range query {
		hits, err := e.knn(ctx, indexName, vec, topK)
		if err != nil {
			return nil, err
		}
		perQuery[qi] = hits
	}

	if len(perQuery) == 1 {
		return perQuery[0], nil
	}
	return perQuery, nil
}

func (e *Engine) knn(ctx context.Context, indexName string, vec canon.Vector, topK int) ([]any, error) {
	// KNN query via vec0 MATCH, then JOIN back for doc_id and metadata.
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			m.doc_id,
			m.metadata,
			ve.distance
		FROM %s ve
		INNER JOIN %s m ON m.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, embTable(indexName), metaTable(indexName)), serializeFloat32(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", indexName, err)
	}
	defer rows.Close()

	hits := []any{}
	for rows.Next() {
		var docID string
		var metaJSON sql.NullString
		var distance float64
		if err := rows.Scan(&docID, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		var metadata any
		if metaJSON.Valid {
			if err := json.Unmarshal([]byte(metaJSON.String), &metadata); err != nil {
				metadata = metaJSON.String
			}
		}

		hits = append(hits, map[string]any{
			"id": docID,
			// Convert distance to similarity score: lower distance = higher similarity
			"score":    1.0 / (1.0 + distance),
			"metadata": metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	return hits, nil
}

// Close releases the database handle.
func (e *Engine) Close() error {
	return e.db.Close()
}

// lookup reads an index descriptor from the catalog.
func (e *Engine) lookup(ctx context.Context, name string) (engine.IndexDescriptor, error) {
	if !indexNamePattern.MatchString(name) {
		return engine.IndexDescriptor{}, fmt.Errorf("%w: %q", engine.ErrIndexNotFound, name)
	}

	var desc engine.IndexDescriptor
	desc.Name = name
	err := e.db.QueryRowContext(ctx,
		`SELECT dim, index_type, nlist, nprobe FROM indexes WHERE name = ?`, name,
	).Scan(&desc.Dim, &desc.IndexParams.IndexType, &desc.IndexParams.Nlist, &desc.IndexParams.DefaultNprobe)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.IndexDescriptor{}, fmt.Errorf("%w: %q", engine.ErrIndexNotFound, name)
	}
	if err != nil {
		return engine.IndexDescriptor{}, fmt.Errorf("looking up index %q: %w", name, err)
	}
	return desc, nil
}

func metaTable(index string) string {
	return fmt.Sprintf("vec_meta_%s", index)
}

func embTable(index string) string {
	return fmt.Sprintf("vec_emb_%s", index)
}

// serializeFloat32 converts a vector to a little-endian float32 byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(vec canon.Vector) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(f)))
	}
	return buf
}

// Ensure Engine implements engine.Engine
var _ engine.Engine = (*Engine)(nil)
