package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"kaldiark/internal/ark"
)

// ErrNotFound is returned when an import does not exist.
var ErrNotFound = errors.New("import not found")

// Store manages archive persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Import describes one saved archive.
type Import struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	RecordCount int       `json:"record_count"`
}

// Open initializes or connects to the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts a as a new import in a single transaction.
func (s *Store) Save(ctx context.Context, source string, a *ark.Archive) (Import, error) {
	imp := Import{
		ID:          uuid.NewString(),
		Source:      source,
		CreatedAt:   time.Now().UTC(),
		RecordCount: a.Len(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, created_at, record_count) VALUES (?, ?, ?, ?)`,
		imp.ID, imp.Source, imp.CreatedAt.Format(time.RFC3339Nano), imp.RecordCount,
	); err != nil {
		return Import{}, fmt.Errorf("insert import: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matrices (import_id, ordinal, ident, rows, cols, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Import{}, fmt.Errorf("prepare matrix insert: %w", err)
	}
	defer stmt.Close()

	ordinal := 0
	for id, m := range a.All() {
		if _, err := stmt.ExecContext(ctx, imp.ID, ordinal, id, m.Rows(), m.Cols(), encodeValues(m.Data())); err != nil {
			return Import{}, fmt.Errorf("insert matrix %q: %w", id, err)
		}
		ordinal++
	}

	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("commit save: %w", err)
	}
	return imp, nil
}

// Load rebuilds the archive of an import. An empty id selects the newest import.
func (s *Store) Load(ctx context.Context, id string) (Import, *ark.Archive, error) {
	imp, err := s.lookup(ctx, id)
	if err != nil {
		return Import{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ident, rows, cols, data FROM matrices WHERE import_id = ? ORDER BY ordinal`, imp.ID)
	if err != nil {
		return Import{}, nil, fmt.Errorf("query matrices: %w", err)
	}
	defer rows.Close()

	a := ark.NewArchive()
	for rows.Next() {
		var (
			ident string
			nRows int
			nCols int
			blob  []byte
		)
		if err := rows.Scan(&ident, &nRows, &nCols, &blob); err != nil {
			return Import{}, nil, fmt.Errorf("scan matrix: %w", err)
		}
		m, err := ark.NewMatrixFromData(nRows, nCols, decodeValues(blob))
		if err != nil {
			return Import{}, nil, fmt.Errorf("decode matrix %q: %w", ident, err)
		}
		if err := a.Set(ident, m); err != nil {
			return Import{}, nil, fmt.Errorf("restore matrix %q: %w", ident, err)
		}
	}
	if err := rows.Err(); err != nil {
		return Import{}, nil, fmt.Errorf("iterate matrices: %w", err)
	}
	return imp, a, nil
}

// List returns all imports, newest first.
func (s *Store) List(ctx context.Context) ([]Import, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, created_at, record_count FROM imports ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return out, nil
}

// Delete removes an import and its matrices.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM imports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete import: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) lookup(ctx context.Context, id string) (Import, error) {
	query := `SELECT id, source, created_at, record_count FROM imports WHERE id = ?`
	args := []any{id}
	if id == "" {
		query = `SELECT id, source, created_at, record_count FROM imports ORDER BY rowid DESC LIMIT 1`
		args = nil
	}
	imp, err := scanImport(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return Import{}, fmt.Errorf("%w: store is empty", ErrNotFound)
		}
		return Import{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return imp, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImport(row rowScanner) (Import, error) {
	var (
		imp     Import
		created string
	)
	if err := row.Scan(&imp.ID, &imp.Source, &created, &imp.RecordCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Import{}, err
		}
		return Import{}, fmt.Errorf("scan import: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Import{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	imp.CreatedAt = ts
	return imp, nil
}

func encodeValues(values []float64) []byte {
	buf := make([]byte, 0, len(values)*8)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

func decodeValues(blob []byte) []float64 {
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values
}
