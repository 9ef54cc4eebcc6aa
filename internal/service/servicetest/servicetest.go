// Package servicetest provides ledger fixtures for service tests.
package servicetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/inmemory"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/insqlite"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/retrying"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Logger discards output.
func Logger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// LedgerConfig allows withdrawals from 10.00 and a couple of retries.
func LedgerConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		MinWithdrawal: decimal.NewFromInt(10),
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	}
}

// Backend builds an empty ledger.
type Backend struct {
	Name string
	New  func(t *testing.T) storage.Ledger
}

// Backends returns the memory and SQLite stores, each behind the retry decorator.
func Backends() []Backend {
	return []Backend{
		{Name: "memory", New: func(t *testing.T) storage.Ledger {
			return retrying.Wrap(inmemory.InitStorage(Logger()), LedgerConfig(), Logger())
		}},
		{Name: "sqlite", New: func(t *testing.T) storage.Ledger {
			st, err := insqlite.InitStorage(context.Background(), &config.StorageConfig{SQLitePath: filepath.Join(t.TempDir(), "ledger.db")}, Logger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })
			return retrying.Wrap(st, LedgerConfig(), Logger())
		}},
	}
}

// AddUser inserts a regular user with a zero balance.
func AddUser(t *testing.T, ledger storage.Ledger, id string) *modelledger.User {
	t.Helper()
	user := &modelledger.User{
		ID:            id,
		Name:          "User " + id,
		Email:         id + "@example.com",
		PasswordHash:  "x",
		Role:          modelledger.RoleUser,
		WalletBalance: decimal.Zero,
		CreatedAt:     modelledger.Now(),
	}
	require.NoError(t, ledger.AtomicUpdate(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertUser(ctx, user)
	}))
	return user
}

// AddTask inserts an active task with the given reward.
func AddTask(t *testing.T, ledger storage.Ledger, id, reward string) *modelledger.Task {
	t.Helper()
	task := &modelledger.Task{
		ID:        id,
		Title:     "Task " + id,
		Reward:    decimal.RequireFromString(reward),
		Status:    modelledger.TaskActive,
		CreatedAt: modelledger.Now(),
	}
	require.NoError(t, ledger.AtomicUpdate(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertTask(ctx, task)
	}))
	return task
}

// Balance reads the user's current balance.
func Balance(t *testing.T, ledger storage.Ledger, id string) decimal.Decimal {
	t.Helper()
	user, err := ledger.GetUser(context.Background(), id)
	require.NoError(t, err)
	return user.WalletBalance
}

// Amount parses a decimal literal.
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
