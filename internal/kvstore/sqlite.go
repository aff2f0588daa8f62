package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// batchChunkSize bounds the number of parameters bound to a single SQL
// statement. SQLite's default variable limit is 999.
const batchChunkSize = 500

// SQLiteStore is the default Store backend, one SQLite table per namespace.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates the SQLite database at path, creating parent
// directories as needed. WAL mode is enabled for concurrent readers.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open sqlite db", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, unavailable("set WAL mode", err)
	}

	return &SQLiteStore{db: db, dbPath: path}, nil
}

// EnsureNamespace creates the namespace table if it doesn't exist.
func (s *SQLiteStore) EnsureNamespace(ctx context.Context, namespace string) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)`, namespace)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return unavailable("ensure namespace "+namespace, err)
	}
	return nil
}

// BatchGet returns the subset of keys present in the namespace.
func (s *SQLiteStore) BatchGet(ctx context.Context, namespace string, keys []string) (map[string][]byte, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	distinct := dedupeKeys(keys)
	for start := 0; start < len(distinct); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(distinct) {
			end = len(distinct)
		}
		if err := s.getChunk(ctx, namespace, distinct[start:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// getChunk fetches one IN-clause worth of keys into result.
func (s *SQLiteStore) getChunk(ctx context.Context, namespace string, keys []string, result map[string][]byte) error {
	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf("SELECT key, value FROM %q WHERE key IN (%s)", namespace, placeholders)

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return unavailable("batch get", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return unavailable("scan row", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return unavailable("iterate rows", err)
	}
	return nil
}

// BatchPutIfAbsent inserts entries whose key is not already present.
// Existing keys are skipped without error, so the first writer wins.
func (s *SQLiteStore) BatchPutIfAbsent(ctx context.Context, namespace string, entries []Entry) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR IGNORE INTO %q (key, value) VALUES (?, ?)", namespace))
	if err != nil {
		tx.Rollback()
		return unavailable("prepare statement", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.Key, entry.Value); err != nil {
			tx.Rollback()
			return unavailable("insert entry "+entry.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit transaction", err)
	}
	return nil
}

// Stats returns entry count and total value bytes for a namespace.
func (s *SQLiteStore) Stats(ctx context.Context, namespace string) (*Stats, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	var stats Stats
	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(LENGTH(value)), 0) FROM %q", namespace)
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.Entries, &stats.ValueBytes); err != nil {
		return nil, unavailable("namespace stats", err)
	}
	return &stats, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}
