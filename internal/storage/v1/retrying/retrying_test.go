package retrying

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/logger"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flaky fails the first n calls of AtomicUpdate and GetTask with err.
type flaky struct {
	storage.Ledger
	n     int
	err   error
	calls int
}

func (f *flaky) AtomicUpdate(ctx context.Context, fn storage.TxFunc) error {
	f.calls++
	if f.calls <= f.n {
		return f.err
	}
	return f.Ledger.AtomicUpdate(ctx, fn)
}

func (f *flaky) GetTask(ctx context.Context, id string) (*modelledger.Task, error) {
	f.calls++
	if f.calls <= f.n {
		return nil, f.err
	}
	return f.Ledger.GetTask(ctx, id)
}

// lostCommit applies every unit to the wrapped ledger, then reports the
// commit as unobservable.
type lostCommit struct {
	storage.Ledger
	calls int
}

func (l *lostCommit) AtomicUpdate(ctx context.Context, fn storage.TxFunc) error {
	l.calls++
	if err := l.Ledger.AtomicUpdate(ctx, fn); err != nil {
		return err
	}
	return &storageErrors.CommitUnknownError{Err: errors.New("connection reset by peer")}
}

func newLedger(inner storage.Ledger, retries int) *Ledger {
	return Wrap(inner, &config.LedgerConfig{MaxRetries: retries, RetryInterval: time.Millisecond}, logger.InitLog())
}

func TestAtomicUpdate_RetriesConflict(t *testing.T) {
	inner := &flaky{Ledger: inmemory.InitStorage(logger.InitLog()), n: 2, err: &storageErrors.ConflictError{Err: errors.New("deadlock")}}
	l := newLedger(inner, 3)

	ran := 0
	err := l.AtomicUpdate(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		ran++
		return tx.InsertTask(ctx, &modelledger.Task{ID: "t1", Title: "Task", Status: modelledger.TaskActive})
	})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 1, ran)

	task, err := l.GetTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Task", task.Title)
}

func TestAtomicUpdate_GivesUp(t *testing.T) {
	inner := &flaky{Ledger: inmemory.InitStorage(logger.InitLog()), n: 100, err: &storageErrors.UnavailableError{Err: errors.New("down")}}
	l := newLedger(inner, 2)

	err := l.AtomicUpdate(context.Background(), func(ctx context.Context, tx storage.Tx) error { return nil })
	var unavailableError *storageErrors.UnavailableError
	assert.True(t, errors.As(err, &unavailableError))
	assert.Less(t, inner.calls, 100)
	assert.GreaterOrEqual(t, inner.calls, 2)
}

func TestAtomicUpdate_BusinessErrorNotRetried(t *testing.T) {
	inner := &flaky{Ledger: inmemory.InitStorage(logger.InitLog())}
	l := newLedger(inner, 3)

	sentinel := errors.New("insufficient balance")
	err := l.AtomicUpdate(context.Background(), func(ctx context.Context, tx storage.Tx) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, inner.calls)
}

func TestReads_ConflictNotRetried(t *testing.T) {
	inner := &flaky{Ledger: inmemory.InitStorage(logger.InitLog()), n: 1, err: &storageErrors.ConflictError{Err: errors.New("x")}}
	l := newLedger(inner, 3)

	_, err := l.GetTask(context.Background(), "t1")
	var conflictError *storageErrors.ConflictError
	assert.True(t, errors.As(err, &conflictError))
	assert.Equal(t, 1, inner.calls)
}

func TestReads_UnavailableRetried(t *testing.T) {
	inner := &flaky{Ledger: inmemory.InitStorage(logger.InitLog()), n: 1, err: &storageErrors.UnavailableError{Err: errors.New("x")}}
	l := newLedger(inner, 3)

	_, err := l.GetTask(context.Background(), "missing")
	var notFoundError *storageErrors.NotFoundError
	assert.True(t, errors.As(err, &notFoundError))
	assert.Equal(t, 2, inner.calls)
}

func TestAtomicUpdate_CommitUnknownNotRetried(t *testing.T) {
	mem := inmemory.InitStorage(logger.InitLog())
	inner := &lostCommit{Ledger: mem}
	l := newLedger(inner, 3)

	ran := 0
	err := l.AtomicUpdate(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		ran++
		return tx.InsertTransaction(ctx, &modelledger.Transaction{
			ID:     "w1",
			UserID: "u1",
			Type:   modelledger.TransactionWithdrawal,
			Status: modelledger.TransactionPending,
		})
	})
	var commitUnknownError *storageErrors.CommitUnknownError
	require.True(t, errors.As(err, &commitUnknownError))
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, ran)

	_, err = mem.GetTransaction(context.Background(), "w1")
	assert.NoError(t, err)
}
