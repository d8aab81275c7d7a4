// Package sqlite provides SQLite-backed persistence for the corpus and
// the retrieval index.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/medgrain/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/medgrain/internal/core/domain"
	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// corpus and index store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.medgrain/data/medgrain.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".medgrain", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "medgrain.db")

	// Open database with WAL mode for better concurrency
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

// CorpusStore returns a CorpusStore interface backed by this store.
func (s *Store) CorpusStore() driven.CorpusStore {
	return &corpusStore{store: s}
}

// IndexStore returns an IndexStore interface backed by this store.
func (s *Store) IndexStore() driven.IndexStore {
	return &indexStore{store: s}
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
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
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

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Corpus Store ====================

// corpusStore implements driven.CorpusStore.
type corpusStore struct {
	store *Store
}

var _ driven.CorpusStore = (*corpusStore)(nil)

// SaveDocument stores a document. Re-saving identical text under the
// same ID is a no-op; a different document with the same ID is rejected.
func (s *corpusStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	var existing string
	row := s.store.db.QueryRowContext(ctx, "SELECT text FROM documents WHERE id = ?", doc.ID)
	switch err := row.Scan(&existing); {
	case err == nil:
		if existing == doc.Text {
			return nil
		}
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrAlreadyExists)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("checking document %s: %w", doc.ID, err)
	}

	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	ingestedAt := doc.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, text, script, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Text, string(doc.Script), string(metaJSON), ingestedAt)
	if err != nil {
		return fmt.Errorf("saving document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *corpusStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, text, script, metadata, ingested_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document %s: %w", id, err)
	}
	return doc, nil
}

// ListDocuments returns all documents ordered by ID.
func (s *corpusStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, text, script, metadata, ingested_at
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Close is a no-op; the underlying connection is owned by Store.
func (s *corpusStore) Close() error {
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var (
		doc        domain.Document
		script     string
		metaJSON   string
		ingestedAt time.Time
	)
	if err := row.Scan(&doc.ID, &doc.Text, &script, &metaJSON, &ingestedAt); err != nil {
		return nil, err
	}
	doc.Script = domain.Script(script)
	doc.IngestedAt = ingestedAt
	if err := json.Unmarshal([]byte(metaJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return &doc, nil
}

// ==================== Index Store ====================

// indexStore implements driven.IndexStore.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// Persist writes the index inside a single transaction, replacing any
// previously stored one. A concurrent Load sees either the old index or
// the new one, never a partial write.
func (s *indexStore) Persist(ctx context.Context, index *domain.Index) error {
	if err := index.Validate(); err != nil {
		return fmt.Errorf("validating index before persist: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"index_entries", "index_doc_freq", "index_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, signature, saved_at) VALUES (1, ?, ?)
	`, index.Signature.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving index signature: %w", err)
	}

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (id, document_id, start, end, counts, dense)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing entry insert: %w", err)
	}
	defer entryStmt.Close()

	for i := range index.Entries {
		e := &index.Entries[i]

		var countsJSON sql.NullString
		if e.Counts != nil {
			raw, err := json.Marshal(e.Counts)
			if err != nil {
				return fmt.Errorf("marshalling counts for entry %s: %w", e.ID, err)
			}
			countsJSON = sql.NullString{String: string(raw), Valid: true}
		}

		var dense []byte
		if len(e.Dense) > 0 {
			dense = encodeVector(e.Dense)
		}

		if _, err := entryStmt.ExecContext(ctx, e.ID, e.DocumentID, e.Start, e.End, countsJSON, dense); err != nil {
			return fmt.Errorf("saving entry %s: %w", e.ID, err)
		}
	}

	if len(index.DocFreq) > 0 {
		freqStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO index_doc_freq (term, doc_freq) VALUES (?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing doc_freq insert: %w", err)
		}
		defer freqStmt.Close()

		for term, df := range index.DocFreq {
			if _, err := freqStmt.ExecContext(ctx, term, df); err != nil {
				return fmt.Errorf("saving doc frequency: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load reads the stored index.
func (s *indexStore) Load(ctx context.Context) (*domain.Index, error) {
	var rawSig string
	row := s.store.db.QueryRowContext(ctx, "SELECT signature FROM index_meta WHERE id = 1")
	switch err := row.Scan(&rawSig); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("no index stored: %w", domain.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("loading index signature: %w", err)
	}

	sig, err := domain.ParseSignature(rawSig)
	if err != nil {
		return nil, err
	}

	index := &domain.Index{Signature: sig}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, start, end, counts, dense
		FROM index_entries ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("loading index entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e          domain.IndexEntry
			countsJSON sql.NullString
			dense      []byte
		)
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Start, &e.End, &countsJSON, &dense); err != nil {
			return nil, fmt.Errorf("scanning index entry: %w", err)
		}
		if countsJSON.Valid {
			if err := json.Unmarshal([]byte(countsJSON.String), &e.Counts); err != nil {
				return nil, fmt.Errorf("entry %s counts: %w", e.ID, domain.ErrIndexCorrupt)
			}
		}
		if len(dense) > 0 {
			vec, err := decodeVector(dense)
			if err != nil {
				return nil, fmt.Errorf("entry %s embedding: %w", e.ID, domain.ErrIndexCorrupt)
			}
			e.Dense = vec
		}
		index.Entries = append(index.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index entries: %w", err)
	}

	freqRows, err := s.store.db.QueryContext(ctx, "SELECT term, doc_freq FROM index_doc_freq")
	if err != nil {
		return nil, fmt.Errorf("loading doc frequencies: %w", err)
	}
	defer freqRows.Close()

	for freqRows.Next() {
		var (
			term string
			df   int
		)
		if err := freqRows.Scan(&term, &df); err != nil {
			return nil, fmt.Errorf("scanning doc frequency: %w", err)
		}
		if index.DocFreq == nil {
			index.DocFreq = make(map[string]int)
		}
		index.DocFreq[term] = df
	}
	if err := freqRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating doc frequencies: %w", err)
	}

	if err := index.Validate(); err != nil {
		return nil, err
	}
	return index, nil
}

// Close is a no-op; the underlying connection is owned by Store.
func (s *indexStore) Close() error {
	return nil
}

// encodeVector converts a float32 slice to little-endian bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector converts little-endian bytes back to a float32 slice.
func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector data length %d not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
