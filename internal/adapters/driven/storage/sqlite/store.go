// Package sqlite provides a SQLite-backed chunk store. Embeddings are
// stored as little-endian float32 blobs and ranked by cosine similarity
// in Go; lexical ranking uses an FTS5 index with bm25 scoring.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/FWU-DE/telli-dialog-sub001/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

// Store is a SQLite-backed chunk store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a chunk store at the specified data directory.
// If dataDir is empty, defaults to ~/.telli-rag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".telli-rag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chunks.db")

	// WAL mode for concurrent readers during ingestion.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveChunks stores a batch of chunks transactionally. Chunks are
// immutable, so this is a plain insert; re-ingesting a file requires
// deleting its chunks first.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks
			(id, file_id, order_index, content, leading_overlap, trailing_overlap, page, degraded, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, chunk := range chunks {
		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.FileID, chunk.OrderIndex, chunk.Content,
			chunk.LeadingOverlap, chunk.TrailingOverlap, nullInt(chunk.Page),
			chunk.Degraded, float32SliceToBytes(chunk.Embedding), createdAt,
		); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks returns all chunks of a file ordered by OrderIndex.
func (s *Store) GetChunks(ctx context.Context, fileID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, order_index, content, leading_overlap, trailing_overlap, page, degraded, embedding, created_at
		FROM chunks WHERE file_id = ?
		ORDER BY order_index
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteFile removes all chunks belonging to a file.
func (s *Store) DeleteFile(ctx context.Context, fileID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("deleting chunks for file %s: %w", fileID, err)
	}
	return nil
}

// VectorSearch ranks the candidate files' chunks by cosine similarity to
// the query embedding. Candidate sets are small (the files attached to
// one conversation), so similarity is computed in Go over the stored
// blobs rather than pushed into SQL.
func (s *Store) VectorSearch(ctx context.Context, embedding []float32, fileIDs []string, limit int) ([]driven.VectorHit, error) {
	if len(embedding) == 0 || len(fileIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, file_id, order_index, content, leading_overlap, trailing_overlap, page, degraded, embedding, created_at
		FROM chunks
		WHERE embedding IS NOT NULL AND file_id IN (` + placeholders(len(fileIDs)) + `)`

	rows, err := s.db.QueryContext(ctx, query, stringArgs(fileIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying candidate chunks: %w", err)
	}
	defer rows.Close()

	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(chunks))
	for _, chunk := range chunks {
		hits = append(hits, driven.VectorHit{
			Chunk:      chunk,
			Similarity: cosineSimilarity(embedding, chunk.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// LexicalSearch ranks the candidate files' chunks by bm25 relevance
// against an OR-query of the given terms. Non-matching rows never
// appear, which is what filters out zero-score chunks.
func (s *Store) LexicalSearch(ctx context.Context, terms []string, fileIDs []string, limit int) ([]driven.LexicalHit, error) {
	if len(terms) == 0 || len(fileIDs) == 0 {
		return nil, nil
	}

	match := buildMatchQuery(terms)

	query := `
		SELECT c.id, c.file_id, c.order_index, c.content, c.leading_overlap, c.trailing_overlap,
		       c.page, c.degraded, c.embedding, c.created_at, bm25(chunks_fts) AS rank
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		WHERE chunks_fts MATCH ? AND c.file_id IN (` + placeholders(len(fileIDs)) + `)
		ORDER BY rank
		LIMIT ?`

	args := make([]any, 0, len(fileIDs)+2)
	args = append(args, match)
	args = append(args, stringArgs(fileIDs)...)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying text index: %w", err)
	}
	defer rows.Close()

	var hits []driven.LexicalHit
	for rows.Next() {
		chunk, rank, err := scanChunkWithRank(rows)
		if err != nil {
			return nil, err
		}
		// bm25() returns a negative value where lower means more
		// relevant; flip it so higher is better.
		hits = append(hits, driven.LexicalHit{Chunk: *chunk, Score: -rank})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return hits, nil
}

// buildMatchQuery joins quoted terms into an FTS5 OR-query.
func buildMatchQuery(terms []string) string {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, ``) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ==================== Helper Functions ====================

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanChunks scans all chunk rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var page sql.NullInt64
	var embeddingBlob []byte
	var createdAt sql.NullTime

	if err := rows.Scan(&chunk.ID, &chunk.FileID, &chunk.OrderIndex, &chunk.Content,
		&chunk.LeadingOverlap, &chunk.TrailingOverlap, &page, &chunk.Degraded,
		&embeddingBlob, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if page.Valid {
		p := int(page.Int64)
		chunk.Page = &p
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	if createdAt.Valid {
		chunk.CreatedAt = createdAt.Time
	}

	return &chunk, nil
}

// scanChunkWithRank scans a chunk row carrying a trailing rank column.
func scanChunkWithRank(rows *sql.Rows) (*domain.Chunk, float64, error) {
	var chunk domain.Chunk
	var page sql.NullInt64
	var embeddingBlob []byte
	var createdAt sql.NullTime
	var rank float64

	if err := rows.Scan(&chunk.ID, &chunk.FileID, &chunk.OrderIndex, &chunk.Content,
		&chunk.LeadingOverlap, &chunk.TrailingOverlap, &page, &chunk.Degraded,
		&embeddingBlob, &createdAt, &rank); err != nil {
		return nil, 0, fmt.Errorf("scanning hit: %w", err)
	}

	if page.Valid {
		p := int(page.Int64)
		chunk.Page = &p
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	if createdAt.Valid {
		chunk.CreatedAt = createdAt.Time
	}

	return &chunk, rank, nil
}
