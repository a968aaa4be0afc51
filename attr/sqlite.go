package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SQLiteStore persists attribute records so that a remount starts with a
// warm cache instead of re-listing the bucket level by level. It keeps the
// same monotonic-insert discipline as MemoryStore.
type SQLiteStore struct {
	pool *sqlitemigration.Pool
}

func NewSQLiteStore(dbPath string) *SQLiteStore {
	schema := sqlitemigration.Schema{
		Migrations: []string{
			`CREATE TABLE IF NOT EXISTS attrs (
					path TEXT PRIMARY KEY,   -- Absolute, /-rooted path
					kind INTEGER NOT NULL,   -- 0 directory, 1 file
					size INTEGER NOT NULL,   -- Bytes; synthetic constant for directories
					mtime INTEGER NOT NULL   -- Modification time (Unix timestamp)
				);
			`,
		},
	}

	pool := sqlitemigration.NewPool(dbPath, schema, sqlitemigration.Options{
		Flags: sqlite.OpenCreate | sqlite.OpenReadWrite | sqlite.OpenWAL,
		PrepareConn: func(conn *sqlite.Conn) error {
			return sqlitex.ExecScript(conn, `PRAGMA busy_timeout = 5000;`)
		},
		OnError: func(e error) {
			slog.Error("attribute store error", slog.Any("error", errors.WithStack(e)))
		},
	})

	return &SQLiteStore{
		pool: pool,
	}
}

// Lookup implements Store.
func (s *SQLiteStore) Lookup(ctx context.Context, path string) (Record, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Record{}, false, errors.WithStack(err)
	}
	defer s.pool.Put(conn)

	var record Record
	found := false

	err = sqlitex.Execute(conn, `SELECT kind, size, mtime FROM attrs WHERE path = ?`, &sqlitex.ExecOptions{
		Args: []interface{}{path},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			record = Record{
				Kind:    Kind(stmt.ColumnInt64(0)),
				Size:    stmt.ColumnInt64(1),
				ModTime: time.Unix(stmt.ColumnInt64(2), 0),
			}
			return nil
		},
	})
	if err != nil {
		return Record{}, false, errors.WithStack(err)
	}

	return record, found, nil
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, path string, record Record) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO attrs (path, kind, size, mtime)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET kind = excluded.kind, size = excluded.size, mtime = excluded.mtime
	`, &sqlitex.ExecOptions{
		Args: []interface{}{path, int64(record.Kind), record.Size, record.ModTime.Unix()},
	})

	return errors.WithStack(err)
}

// Snapshot implements Store.
func (s *SQLiteStore) Snapshot(ctx context.Context) (map[string]Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer s.pool.Put(conn)

	snapshot := make(map[string]Record)

	err = sqlitex.Execute(conn, `SELECT path, kind, size, mtime FROM attrs`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			snapshot[stmt.ColumnText(0)] = Record{
				Kind:    Kind(stmt.ColumnInt64(1)),
				Size:    stmt.ColumnInt64(2),
				ModTime: time.Unix(stmt.ColumnInt64(3), 0),
			}
			return nil
		},
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return snapshot, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return errors.WithStack(s.pool.Close())
}

var _ Store = &SQLiteStore{}
