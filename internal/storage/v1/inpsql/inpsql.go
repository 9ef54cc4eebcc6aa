// Package inpsql provides the PostgreSQL ledger store.
package inpsql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/sqlbase"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog"
)

// Dialect drives PostgreSQL: $n placeholders, row locks via FOR UPDATE and
// FOR SHARE, READ COMMITTED units.
var Dialect = sqlbase.Dialect{
	Name:              "postgres",
	Rebind:            sqlbase.DollarRebind,
	ForUpdate:         " FOR UPDATE",
	ForShare:          " FOR SHARE",
	Classify:          Classify,
	CommitSafeToRetry: pgconn.SafeToRetry,
	TxOptions:         &sql.TxOptions{Isolation: sql.LevelReadCommitted},
}

// InitStorage opens the database, checks connectivity and creates tables.
func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger) (*sqlbase.Store, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &storageErrors.UnavailableError{Err: err}
	}

	st := sqlbase.New(db, Dialect, log)
	if err := st.Migrate(ctx, sqlbase.Schema()); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Msg("PSQL DB connection was established")
	return st, nil
}

// Classify maps pgx errors onto storage errors.
func Classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return &storageErrors.AlreadyExistsError{Err: err}
		case pgErr.Code == pgerrcode.SerializationFailure,
			pgErr.Code == pgerrcode.DeadlockDetected,
			pgErr.Code == pgerrcode.LockNotAvailable:
			return &storageErrors.ConflictError{Err: err}
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return &storageErrors.UnavailableError{Err: err}
		}
		return &storageErrors.ExecutionError{Err: err}
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) || errors.As(err, &netErr) {
		return &storageErrors.UnavailableError{Err: err}
	}
	return &storageErrors.ExecutionError{Err: err}
}
