// Package pg implements index.SnapshotStore on PostgreSQL. Snapshots are
// stored one row per name with the full payload as JSONB, which keeps reads
// a single round trip at the corpus sizes the index targets.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/veracity-ai/veracity/rag/index"
)

// Config holds PostgreSQL snapshot store configuration.
type Config struct {
	// DSN is a lib/pq connection string or postgres:// URL.
	DSN   string
	Table string
}

// Store is a PostgreSQL-backed snapshot store.
type Store struct {
	db    *sql.DB
	table string
}

// New opens the database, verifies the connection and ensures the snapshot
// table exists.
func New(ctx context.Context, config *Config) (*Store, error) {
	if config == nil || config.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	table := config.Table
	if table == "" {
		table = "index_snapshots"
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: db, table: table}
	if err := s.createTable(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		name VARCHAR(255) PRIMARY KEY,
		payload JSONB NOT NULL,
		chunk_count INT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`, s.table)

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save upserts the snapshot under name.
func (s *Store) Save(ctx context.Context, name string, snap *index.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (name, payload, chunk_count, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $4)
	ON CONFLICT (name) DO UPDATE SET
		payload = EXCLUDED.payload,
		chunk_count = EXCLUDED.chunk_count,
		updated_at = EXCLUDED.updated_at
	`, s.table)

	_, err = s.db.ExecContext(ctx, query, name, payload, len(snap.SourceIDs), time.Now())
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

// Load returns the snapshot stored under name, or (nil, nil) if none exists.
func (s *Store) Load(ctx context.Context, name string) (*index.Snapshot, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE name = $1`, s.table)

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	var snap index.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", name, err)
	}
	return &snap, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ index.SnapshotStore = (*Store)(nil)
