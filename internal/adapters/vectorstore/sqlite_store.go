package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// SQLiteStore is a SQLite-backed implementation of the ExampleStore
// interface. Rows are the durable copy; the full index is loaded into
// memory at startup and searched there. Records are append-only and
// never individually deleted.
type SQLiteStore struct {
	db         *sql.DB
	embedder   core.EmbeddingClient
	logger     *zap.Logger
	mu         sync.RWMutex
	entries    []indexEntry
	generation atomic.Uint64
}

// NewSQLiteStore opens (or creates) the database at dbPath, creates the
// schema if needed, loads the persisted index and bootstraps the
// placeholder row on first use
func NewSQLiteStore(dbPath string, embedder core.EmbeddingClient, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS example_records (
			id TEXT PRIMARY KEY,
			from_addr TEXT,
			to_addr TEXT,
			subject TEXT,
			body TEXT,
			classification TEXT,
			categories TEXT,
			embedding BLOB,
			placeholder INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}

	if err := store.loadIndex(); err != nil {
		db.Close()
		return nil, err
	}

	if len(store.entries) == 0 {
		if err := store.bootstrap(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Created new example store", zap.String("path", dbPath))
	} else {
		logger.Info("Loaded existing example store",
			zap.String("path", dbPath),
			zap.Int("records", countReal(store.entries)))
	}

	return store, nil
}

// loadIndex reads every persisted row into the in-memory index
func (s *SQLiteStore) loadIndex() error {
	rows, err := s.db.Query(`
		SELECT id, from_addr, to_addr, subject, body, classification, categories, embedding, placeholder, created_at
		FROM example_records
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to read persisted index: %v", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return fmt.Errorf("%w: failed to scan persisted record: %v", core.ErrStoreUnavailable, err)
		}
		s.entries = append(s.entries, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: failed to read persisted index: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// bootstrap inserts the placeholder row into a fresh store
func (s *SQLiteStore) bootstrap() error {
	vector, err := s.embedder.EmbedText(context.Background(), bootstrapText)
	if err != nil {
		return fmt.Errorf("failed to bootstrap example store: %w", err)
	}
	embedding, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode placeholder embedding: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO example_records (id, body, embedding, placeholder, created_at)
		VALUES (?, ?, ?, 1, ?)
	`, "placeholder", bootstrapText, embedding, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: failed to persist placeholder: %v", core.ErrStoreUnavailable, err)
	}

	s.entries = append(s.entries, indexEntry{vector: vector, placeholder: true})
	return nil
}

// Add embeds each record, persists it and appends it to the in-memory
// index, holding the write lock for the whole read-modify-persist
// cycle. Every record is attempted; failures are reported together as
// an *core.IngestError while persisted successes remain.
func (s *SQLiteStore) Add(ctx context.Context, records []core.ExampleRecord) error {
	var failures []core.IngestFailure

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, record := range records {
		vector, err := s.embedder.EmbedText(ctx, record.Body)
		if err != nil {
			failures = append(failures, core.IngestFailure{Index: i, Err: fmt.Errorf("embed: %w", err)})
			continue
		}
		if err := s.insert(ctx, record, vector); err != nil {
			failures = append(failures, core.IngestFailure{Index: i, Err: err})
			continue
		}
		s.entries = append(s.entries, indexEntry{record: record, vector: vector})
	}
	s.generation.Add(1)

	if len(failures) > 0 {
		return &core.IngestError{Attempted: len(records), Failures: failures}
	}
	return nil
}

func (s *SQLiteStore) insert(ctx context.Context, record core.ExampleRecord, vector []float32) error {
	embedding, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	categories, err := json.Marshal([]string(record.Categories))
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO example_records (id, from_addr, to_addr, subject, body, classification, categories, embedding, placeholder, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`, record.ID, record.From, record.To, record.Subject, record.Body,
		record.Classification, categories, embedding, record.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: insert failed: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Search returns up to k records nearest to the query text
func (s *SQLiteStore) Search(ctx context.Context, query string, k int) ([]core.ScoredExample, error) {
	if k < 1 {
		return nil, nil
	}

	queryVector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchIndex(s.entries, queryVector, k), nil
}

// Len reports the number of real records in the store
func (s *SQLiteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countReal(s.entries)
}

// Generation reports the store mutation counter
func (s *SQLiteStore) Generation() uint64 {
	return s.generation.Load()
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner abstracts *sql.Rows for entry scanning shared with the
// MySQL store
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry decodes one persisted row into an index entry
func scanEntry(row rowScanner) (indexEntry, error) {
	var (
		entry       indexEntry
		categories  sql.NullString
		embedding   []byte
		placeholder int
		createdAt   sql.NullString
		from        sql.NullString
		to          sql.NullString
		subject     sql.NullString
		cls         sql.NullString
	)

	err := row.Scan(&entry.record.ID, &from, &to, &subject, &entry.record.Body,
		&cls, &categories, &embedding, &placeholder, &createdAt)
	if err != nil {
		return indexEntry{}, err
	}

	entry.record.From = from.String
	entry.record.To = to.String
	entry.record.Subject = subject.String
	entry.record.Classification = cls.String
	entry.placeholder = placeholder != 0

	if categories.Valid && categories.String != "" {
		var names []string
		if err := json.Unmarshal([]byte(categories.String), &names); err != nil {
			return indexEntry{}, fmt.Errorf("decode categories: %w", err)
		}
		entry.record.Categories = core.NewCategorySet(names...)
	}

	if len(embedding) > 0 {
		if err := json.Unmarshal(embedding, &entry.vector); err != nil {
			return indexEntry{}, fmt.Errorf("decode embedding: %w", err)
		}
	}

	if createdAt.Valid {
		if parsed, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
			entry.record.CreatedAt = parsed
		}
	}

	return entry, nil
}
