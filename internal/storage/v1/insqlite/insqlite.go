// Package insqlite provides a file-backed ledger store on SQLite.
package insqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/sqlbase"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect drives SQLite. There is no row locking: the store keeps a single
// connection, so atomic units are serialized as a whole.
var Dialect = sqlbase.Dialect{
	Name:     "sqlite",
	Rebind:   sqlbase.QuestionRebind,
	Classify: Classify,
}

// InitStorage opens (creating if needed) the database file at cfg.SQLitePath.
func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger) (*sqlbase.Store, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := "file:" + cfg.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	st := sqlbase.New(db, Dialect, log)
	if err := st.Migrate(ctx, sqlbase.Schema()); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("path", cfg.SQLitePath).Msg("SQLite DB was opened")
	return st, nil
}

// Classify maps SQLite result codes onto storage errors.
func Classify(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &storageErrors.AlreadyExistsError{Err: err}
		}
		// extended codes carry the primary code in the low byte
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return &storageErrors.ConflictError{Err: err}
		case sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL:
			return &storageErrors.UnavailableError{Err: err}
		}
	}
	return &storageErrors.ExecutionError{Err: err}
}
