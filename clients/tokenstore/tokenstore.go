// Package tokenstore persists the session token pair across process
// restarts. The backend re-issues short-lived access tokens, so the store
// only ever holds the most recent pair.
package tokenstore

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Store is the interface for token persistence operations.
// This allows for easy mocking in tests.
type Store interface {
	// Load returns the stored access and refresh tokens. Both are empty
	// strings when nothing is stored.
	Load() (accessToken, refreshToken string, err error)

	// Save replaces the stored token pair.
	Save(accessToken, refreshToken string) error

	// Clear removes any stored tokens.
	Clear() error

	// Close releases underlying resources.
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
    id            INTEGER PRIMARY KEY CHECK (id = 1),
    access_token  TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    updated_at    DATETIME NOT NULL
);
`

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists tokens in a single-row SQLite table.
type SQLiteStore struct {
	logger *zap.Logger
	db     *sql.DB
	mu     sync.Mutex
}

// NewSQLiteStore opens (or creates) the token database at the given path
// and applies the schema.
func NewSQLiteStore(logger *zap.Logger, path string) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = "whaledeck_tokens.db"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open token db %q: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply token schema: %w", err)
	}

	return &SQLiteStore{logger: logger, db: db}, nil
}

// Load returns the stored token pair, or empty strings when none exists.
func (s *SQLiteStore) Load() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var access, refresh string
	err := s.db.QueryRow(`SELECT access_token, refresh_token FROM tokens WHERE id = 1`).Scan(&access, &refresh)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("load tokens: %w", err)
	}
	return access, refresh, nil
}

// Save replaces the stored token pair.
func (s *SQLiteStore) Save(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO tokens (id, access_token, refresh_token, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at    = excluded.updated_at`,
		accessToken, refreshToken, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

// Clear removes any stored tokens.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM tokens WHERE id = 1`); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// MemoryStore is a non-durable Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, m.refresh, nil
}

func (m *MemoryStore) Save(accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = accessToken
	m.refresh = refreshToken
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = ""
	m.refresh = ""
	return nil
}

func (m *MemoryStore) Close() error { return nil }
