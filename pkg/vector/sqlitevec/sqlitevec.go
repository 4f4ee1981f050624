// Package sqlitevec provides a SQLite-backed vector index using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/vector"
)

// Driver implements vector.Index using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	logger     *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector index backed by sqlite-vec.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
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

	// Chunk rows carry content and metadata; the vec0 virtual table only
	// knows embeddings by integer rowid, so the chunks table provides the
	// string-ID-to-rowid mapping.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_id TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			filename TEXT NOT NULL DEFAULT '',
			page_number INTEGER NOT NULL DEFAULT 0,
			chunk_index INTEGER NOT NULL DEFAULT 0,
			total_chunks INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	// Deletion looks chunks up by source path.
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating source index: %w", err)
	}

	// Create the vec0 virtual table for vector storage and KNN queries.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector index initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Add stores records with their embeddings, upserting by ID.
func (d *Driver) Add(ctx context.Context, recs []vector.Record) error {
	if len(recs) == 0 {
		return nil
	}

	for _, rec := range recs {
		if uint(len(rec.Embedding)) != d.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, index expects %d",
				vector.ErrDimensionMismatch, rec.ID, len(rec.Embedding), d.dimensions)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		embBlob := serializeFloat32(rec.Embedding)
		m := rec.Metadata

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM chunks WHERE chunk_id = ?`, rec.ID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			// Record exists — update row and embedding
			if _, err := tx.ExecContext(ctx,
				`UPDATE chunks SET content = ?, source = ?, filename = ?, page_number = ?, chunk_index = ?, total_chunks = ? WHERE rowid = ?`,
				rec.Content, m.Source, m.Filename, m.PageNumber, m.ChunkIndex, m.TotalChunks, existingRowID,
			); err != nil {
				return fmt.Errorf("updating chunk %s: %w", rec.ID, err)
			}

			// Update embedding in vec0 table via DELETE + INSERT
			// (vec0 does not support UPDATE)
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_chunks WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for chunk %s: %w", rec.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_chunks(rowid, embedding) VALUES (?, ?)`,
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for chunk %s: %w", rec.ID, err)
			}
		case sql.ErrNoRows:
			// New record — insert into mapping table first to get the rowid
			result, err := tx.ExecContext(ctx,
				`INSERT INTO chunks(chunk_id, content, source, filename, page_number, chunk_index, total_chunks) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, rec.Content, m.Source, m.Filename, m.PageNumber, m.ChunkIndex, m.TotalChunks,
			)
			if err != nil {
				return fmt.Errorf("inserting chunk %s: %w", rec.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for chunk %s: %w", rec.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_chunks(rowid, embedding) VALUES (?, ?)`,
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for chunk %s: %w", rec.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing chunk %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added records to sqlite-vec",
		zap.Int("count", len(recs)),
	)

	return nil
}

// GetBySource retrieves all records whose source path matches.
func (d *Driver) GetBySource(ctx context.Context, source string) ([]vector.Record, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT c.chunk_id, c.content, c.source, c.filename, c.page_number, c.chunk_index, c.total_chunks, v.embedding
		FROM chunks c
		LEFT JOIN vec_chunks v ON v.rowid = c.rowid
		WHERE c.source = ?
	`, source)
	if err != nil {
		return nil, fmt.Errorf("querying chunks by source: %w", err)
	}
	defer rows.Close()

	var recs []vector.Record
	for rows.Next() {
		var rec vector.Record
		var embBlob []byte
		if err := rows.Scan(
			&rec.ID, &rec.Content,
			&rec.Metadata.Source, &rec.Metadata.Filename,
			&rec.Metadata.PageNumber, &rec.Metadata.ChunkIndex, &rec.Metadata.TotalChunks,
			&embBlob,
		); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if len(embBlob) > 0 {
			rec.Embedding, _ = deserializeFloat32(embBlob)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return recs, nil
}

// Delete removes records by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	inClause := strings.Join(placeholders, ",")

	// First, get the rowids for the chunks to delete from vec0
	query := fmt.Sprintf(
		`SELECT rowid FROM chunks WHERE chunk_id IN (%s)`, inClause,
	)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_chunks WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	deleteQuery := fmt.Sprintf(
		`DELETE FROM chunks WHERE chunk_id IN (%s)`, inClause,
	)
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted records from sqlite-vec",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Count returns the total number of stored records.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Query finds the topK records most similar to the given embedding, closest
// first. The vec0 KNN match naturally returns at most what exists, so a
// topK beyond the record count yields everything.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryHit, error) {
	if topK < 1 {
		topK = 1
	}

	queryBlob := serializeFloat32(embedding)

	rows, err := d.db.QueryContext(ctx, `
		SELECT
			c.chunk_id, c.content, c.source, c.filename, c.page_number, c.chunk_index, c.total_chunks,
			v.distance
		FROM vec_chunks v
		INNER JOIN chunks c ON c.rowid = v.rowid
		WHERE v.embedding MATCH ?
			AND v.k = ?
		ORDER BY v.distance
	`, queryBlob, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []vector.QueryHit
	for rows.Next() {
		var hit vector.QueryHit
		if err := rows.Scan(
			&hit.ID, &hit.Content,
			&hit.Metadata.Source, &hit.Metadata.Filename,
			&hit.Metadata.PageNumber, &hit.Metadata.ChunkIndex, &hit.Metadata.TotalChunks,
			&hit.Distance,
		); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		hit.Score = vector.Score(hit.Distance)
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.Int("results", len(hits)),
	)

	return hits, nil
}

// Reset removes every record and returns how many were removed.
func (d *Driver) Reset(ctx context.Context) (int, error) {
	count, err := d.Count(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_chunks`); err != nil {
		return 0, fmt.Errorf("clearing embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return 0, fmt.Errorf("clearing chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Info("reset sqlite-vec index", zap.Int("deleted", count))
	return count, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Ensure Driver implements vector.Index
var _ vector.Index = (*Driver)(nil)
