package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// MySQLStore is a MySQL-backed implementation of the ExampleStore
// interface, for deployments where the example set is shared across
// hosts. Search still runs over the in-memory index loaded at startup;
// writers must hold exclusive access for the add cycle.
type MySQLStore struct {
	db         *sql.DB
	embedder   core.EmbeddingClient
	logger     *zap.Logger
	mu         sync.RWMutex
	entries    []indexEntry
	generation atomic.Uint64
}

// NewMySQLStore connects with the given DSN, creates the schema if
// needed and loads the persisted index
func NewMySQLStore(dsn string, embedder core.EmbeddingClient, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to MySQL: %v", core.ErrStoreUnavailable, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS example_records (
			id VARCHAR(64) PRIMARY KEY,
			from_addr TEXT,
			to_addr TEXT,
			subject TEXT,
			body MEDIUMTEXT,
			classification VARCHAR(32),
			categories TEXT,
			embedding MEDIUMBLOB,
			placeholder TINYINT NOT NULL DEFAULT 0,
			created_at VARCHAR(64)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	store := &MySQLStore{
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
		logger.Info("Created new example store in MySQL")
	} else {
		logger.Info("Loaded existing example store from MySQL",
			zap.Int("records", countReal(store.entries)))
	}

	return store, nil
}

func (s *MySQLStore) loadIndex() error {
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

func (s *MySQLStore) bootstrap() error {
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

// Add embeds, persists and indexes each record; failures are collected
// into an *core.IngestError after every record has been attempted
func (s *MySQLStore) Add(ctx context.Context, records []core.ExampleRecord) error {
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

func (s *MySQLStore) insert(ctx context.Context, record core.ExampleRecord, vector []float32) error {
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
func (s *MySQLStore) Search(ctx context.Context, query string, k int) ([]core.ScoredExample, error) {
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
func (s *MySQLStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countReal(s.entries)
}

// Generation reports the store mutation counter
func (s *MySQLStore) Generation() uint64 {
	return s.generation.Load()
}

// Close closes the underlying database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
