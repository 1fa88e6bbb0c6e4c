package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlrickert/pubkit/pkg/publish"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records of one collection ("posts", "media") as JSON
// documents in a SQLite table shared by all collections.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// OpenSQLite opens (or creates) the SQLite database at path, ensures the
// data directory exists and tunes the connection for concurrent use.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during a write; the busy timeout makes
	// writers wait for the lock instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	return db, nil
}

// NewSQLiteStore returns a store for collection backed by db, creating the
// schema when missing. The caller owns db.
func NewSQLiteStore(ctx context.Context, db *sql.DB, collection string) (*SQLiteStore, error) {
	if collection == "" {
		return nil, errors.New("sqlite: collection name is required")
	}
	s := &SQLiteStore{db: db, collection: collection}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS records (
    collection TEXT NOT NULL,
    url TEXT NOT NULL,
    document TEXT NOT NULL,
    PRIMARY KEY (collection, url)
);
`)
	return err
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) InsertOne(ctx context.Context, rec *publish.Record) error {
	url := rec.URL()
	if url == "" {
		return publish.NewStoreError(s.Name(), "insertOne", http.StatusBadRequest, errors.New("record has no url"))
	}
	doc, err := publish.MarshalRecord(rec)
	if err != nil {
		return publish.NewStoreError(s.Name(), "insertOne", 0, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (collection, url, document) VALUES (?, ?, ?)`,
		s.collection, url, string(doc))
	if err != nil {
		if isUniqueViolation(err) {
			return publish.NewStoreError(s.Name(), "insertOne", http.StatusConflict, ErrDuplicate)
		}
		return publish.NewStoreError(s.Name(), "insertOne", 0, err)
	}
	return nil
}

func (s *SQLiteStore) FindOne(ctx context.Context, q publish.Query) (*publish.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT document FROM records WHERE collection = ? AND url = ?`, s.collection, q.URL))
	if err != nil {
		return nil, publish.NewStoreError(s.Name(), "findOne", 0, err)
	}
	return rec, nil
}

// FindOneAndUpdate reads, updates and writes the document in a single
// transaction.
func (s *SQLiteStore) FindOneAndUpdate(ctx context.Context, q publish.Query, u publish.Update) (*publish.Record, error) {
	const op = "findOneAndUpdate"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, publish.NewStoreError(s.Name(), op, 0, err)
	}
	defer tx.Rollback()

	rec, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT document FROM records WHERE collection = ? AND url = ?`, s.collection, q.URL))
	if err != nil {
		return nil, publish.NewStoreError(s.Name(), op, 0, err)
	}
	if rec == nil {
		return nil, nil
	}

	publish.ApplyUpdate(rec, u)
	doc, err := publish.MarshalRecord(rec)
	if err != nil {
		return nil, publish.NewStoreError(s.Name(), op, 0, err)
	}
	url := rec.URL()
	if url == "" {
		url = q.URL
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE records SET url = ?, document = ? WHERE collection = ? AND url = ?`,
		url, string(doc), s.collection, q.URL)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, publish.NewStoreError(s.Name(), op, http.StatusConflict, ErrDuplicate)
		}
		return nil, publish.NewStoreError(s.Name(), op, 0, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, publish.NewStoreError(s.Name(), op, 0, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, q publish.Query) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND url = ?`, s.collection, q.URL)
	if err != nil {
		return publish.NewStoreError(s.Name(), "delete", 0, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return publish.NewStoreError(s.Name(), "delete", 0, err)
	}
	if n == 0 {
		return publish.NewNotFoundError(q.URL)
	}
	return nil
}

// scanRecord decodes a single document row. No row yields (nil, nil).
func scanRecord(row *sql.Row) (*publish.Record, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec, err := publish.UnmarshalRecord([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
