// Package retrying decorates a storage.Ledger with bounded retries of
// transient failures.
package retrying

import (
	"context"
	"errors"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/metrics"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/lestrrat-go/backoff/v2"
	"github.com/rs/zerolog"
)

// Ledger reruns atomic units that failed on a conflict or an unavailable
// backend, and reruns reads that failed on an unavailable backend.
type Ledger struct {
	inner  storage.Ledger
	policy backoff.Policy
	log    *zerolog.Logger
}

var _ storage.Ledger = (*Ledger)(nil)

// Wrap returns inner decorated with retries bounded by cfg.
func Wrap(inner storage.Ledger, cfg *config.LedgerConfig, log *zerolog.Logger) *Ledger {
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Ledger{
		inner: inner,
		policy: backoff.Exponential(
			backoff.WithMinInterval(interval),
			backoff.WithMaxInterval(interval*20),
			backoff.WithJitterFactor(0.2),
			backoff.WithMaxRetries(cfg.MaxRetries),
		),
		log: log,
	}
}

func isTransient(err error) bool {
	var unavailableError *storageErrors.UnavailableError
	return errors.As(err, &unavailableError)
}

func isRetryableUnit(err error) bool {
	var conflictError *storageErrors.ConflictError
	return isTransient(err) || errors.As(err, &conflictError)
}

func (l *Ledger) do(ctx context.Context, op string, retryable func(error) bool, fn func() error) error {
	b := l.policy.Start(ctx)
	attempted := false
	var err error
	for backoff.Continue(b) {
		if attempted {
			metrics.StorageRetriesTotal.WithLabelValues(op).Inc()
			l.log.Warn().Err(err).Str("op", op).Msg("storage operation retry attempted")
		}
		attempted = true
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}
	}
	if !attempted {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &storageErrors.ContextTimeoutExceededError{Err: ctxErr}
		}
		return fn()
	}
	return err
}

// AtomicUpdate runs fn through the inner ledger, rerunning the whole unit on
// transient failures. fn must not keep state across attempts.
func (l *Ledger) AtomicUpdate(ctx context.Context, fn storage.TxFunc) error {
	return l.do(ctx, "atomic_update", isRetryableUnit, func() error {
		return l.inner.AtomicUpdate(ctx, fn)
	})
}

func (l *Ledger) Close() error {
	return l.inner.Close()
}

func (l *Ledger) GetUser(ctx context.Context, id string) (user *modelledger.User, err error) {
	err = l.do(ctx, "get_user", isTransient, func() error {
		user, err = l.inner.GetUser(ctx, id)
		return err
	})
	return user, err
}

func (l *Ledger) GetUserByEmail(ctx context.Context, email string) (user *modelledger.User, err error) {
	err = l.do(ctx, "get_user_by_email", isTransient, func() error {
		user, err = l.inner.GetUserByEmail(ctx, email)
		return err
	})
	return user, err
}

func (l *Ledger) GetTask(ctx context.Context, id string) (task *modelledger.Task, err error) {
	err = l.do(ctx, "get_task", isTransient, func() error {
		task, err = l.inner.GetTask(ctx, id)
		return err
	})
	return task, err
}

func (l *Ledger) GetSubmission(ctx context.Context, id string) (submission *modelledger.Submission, err error) {
	err = l.do(ctx, "get_submission", isTransient, func() error {
		submission, err = l.inner.GetSubmission(ctx, id)
		return err
	})
	return submission, err
}

func (l *Ledger) GetTransaction(ctx context.Context, id string) (transaction *modelledger.Transaction, err error) {
	err = l.do(ctx, "get_transaction", isTransient, func() error {
		transaction, err = l.inner.GetTransaction(ctx, id)
		return err
	})
	return transaction, err
}

func (l *Ledger) ListUsers(ctx context.Context, filter modelledger.UserFilter) (users []*modelledger.User, err error) {
	err = l.do(ctx, "list_users", isTransient, func() error {
		users, err = l.inner.ListUsers(ctx, filter)
		return err
	})
	return users, err
}

func (l *Ledger) ListTasks(ctx context.Context, filter modelledger.TaskFilter) (tasks []*modelledger.Task, err error) {
	err = l.do(ctx, "list_tasks", isTransient, func() error {
		tasks, err = l.inner.ListTasks(ctx, filter)
		return err
	})
	return tasks, err
}

func (l *Ledger) ListSubmissions(ctx context.Context, filter modelledger.SubmissionFilter) (submissions []*modelledger.Submission, err error) {
	err = l.do(ctx, "list_submissions", isTransient, func() error {
		submissions, err = l.inner.ListSubmissions(ctx, filter)
		return err
	})
	return submissions, err
}

func (l *Ledger) ListTransactions(ctx context.Context, filter modelledger.TransactionFilter) (transactions []*modelledger.Transaction, err error) {
	err = l.do(ctx, "list_transactions", isTransient, func() error {
		transactions, err = l.inner.ListTransactions(ctx, filter)
		return err
	})
	return transactions, err
}
