package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/dolthub/driver"
)

// doltDatabase is the logical database name inside the Dolt repository.
const doltDatabase = "embedcache"

// DoltStore is a Store backend on a local Dolt repository. It speaks the
// MySQL dialect and keeps the cache under version control, which makes it
// possible to inspect or roll back cache history with the dolt CLI.
type DoltStore struct {
	db     *sql.DB
	dbPath string
}

// OpenDolt opens or creates a Dolt repository at dir and connects to the
// embedcache database inside it, creating the database if needed.
func OpenDolt(dir string) (*DoltStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create dolt directory: %w", err)
	}

	// First, connect without specifying database to create it if needed
	initDSN := fmt.Sprintf("file://%s?commitname=embedcache&commitemail=embedcache@local", dir)
	initDB, err := sql.Open("dolt", initDSN)
	if err != nil {
		return nil, unavailable("open dolt for init", err)
	}
	if _, err := initDB.Exec("CREATE DATABASE IF NOT EXISTS " + doltDatabase); err != nil {
		initDB.Close()
		return nil, unavailable("create database", err)
	}
	initDB.Close()

	dsn := fmt.Sprintf("file://%s?commitname=embedcache&commitemail=embedcache@local&database=%s", dir, doltDatabase)
	db, err := sql.Open("dolt", dsn)
	if err != nil {
		return nil, unavailable("open dolt db", err)
	}

	return &DoltStore{db: db, dbPath: dir}, nil
}

// EnsureNamespace creates the namespace table if it doesn't exist.
func (s *DoltStore) EnsureNamespace(ctx context.Context, namespace string) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	schema := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (`key` VARCHAR(128) PRIMARY KEY, `value` LONGBLOB NOT NULL)", namespace)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return unavailable("ensure namespace "+namespace, err)
	}
	return nil
}

// BatchGet returns the subset of keys present in the namespace.
func (s *DoltStore) BatchGet(ctx context.Context, namespace string, keys []string) (map[string][]byte, error) {
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
		chunk := distinct[start:end]

		placeholders := strings.Repeat("?,", len(chunk))
		placeholders = placeholders[:len(placeholders)-1]
		query := fmt.Sprintf("SELECT `key`, `value` FROM `%s` WHERE `key` IN (%s)", namespace, placeholders)

		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, unavailable("batch get", err)
		}
		for rows.Next() {
			var key string
			var value []byte
			if err := rows.Scan(&key, &value); err != nil {
				rows.Close()
				return nil, unavailable("scan row", err)
			}
			result[key] = value
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, unavailable("iterate rows", err)
		}
		rows.Close()
	}
	return result, nil
}

// BatchPutIfAbsent inserts entries whose key is not already present.
func (s *DoltStore) BatchPutIfAbsent(ctx context.Context, namespace string, entries []Entry) error {
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
		"INSERT IGNORE INTO `%s` (`key`, `value`) VALUES (?, ?)", namespace))
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
func (s *DoltStore) Stats(ctx context.Context, namespace string) (*Stats, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	var stats Stats
	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(LENGTH(`value`)), 0) FROM `%s`", namespace)
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.Entries, &stats.ValueBytes); err != nil {
		return nil, unavailable("namespace stats", err)
	}
	return &stats, nil
}

// Close closes the database connection.
func (s *DoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the Dolt repository directory.
func (s *DoltStore) Path() string {
	return s.dbPath
}
