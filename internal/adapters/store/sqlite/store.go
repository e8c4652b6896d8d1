// Package sqlite implements ports.IdentityStore on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/bft-labs/dropship/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sent_files (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		path         TEXT NOT NULL,
		content_hash TEXT NOT NULL UNIQUE,
		identity_key TEXT UNIQUE,
		size         INTEGER NOT NULL,
		sent_at      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sent_files_sent_at ON sent_files(sent_at);
`

const selectColumns = `id, name, path, content_hash, COALESCE(identity_key, ''), size, sent_at`

// Store is a SQLite-backed identity store.
// content_hash and identity_key carry their own UNIQUE constraints, which
// also give each an index for FindMatch. A missing identity is stored as
// NULL so files without one never collide on it.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps :memory: on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// FindMatch looks up a record by content hash OR identity key.
func (s *Store) FindMatch(ctx context.Context, contentHash, identityKey string) (*domain.FileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM sent_files WHERE content_hash = ?`
	args := []any{contentHash}
	if identityKey != "" {
		query += ` UNION SELECT ` + selectColumns + ` FROM sent_files WHERE identity_key = ?`
		args = append(args, identityKey)
	}
	query += ` LIMIT 1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	return rec, nil
}

// Insert adds rec, failing with domain.ErrRecordConflict if its content hash
// or identity key is already recorded.
func (s *Store) Insert(ctx context.Context, rec *domain.FileRecord) error {
	var ident any
	if rec.IdentityKey != "" {
		ident = rec.IdentityKey
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sent_files (id, name, path, content_hash, identity_key, size, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Name, rec.Path, rec.ContentHash, ident, rec.Size, rec.SentAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrRecordConflict, rec.Name)
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// DeleteByIDs removes the records in one transaction.
func (s *Store) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM sent_files WHERE id = ?`)
	if err != nil {
		return 0, fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	deleted := 0
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return deleted, nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sent_files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// List returns every record ordered by send time.
func (s *Store) List(ctx context.Context) ([]domain.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM sent_files ORDER BY sent_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []domain.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.FileRecord, error) {
	var (
		rec    domain.FileRecord
		sentAt int64
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Path, &rec.ContentHash, &rec.IdentityKey, &rec.Size, &sentAt); err != nil {
		return nil, err
	}
	rec.SentAt = time.Unix(0, sentAt).UTC()
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
