// Package storage defines the ledger persistence contract.
package storage

import (
	"context"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
)

// Reader provides keyed and filtered access to ledger entities.
// Getters return *errors.NotFoundError for unknown ids.
type Reader interface {
	GetUser(ctx context.Context, id string) (*modelledger.User, error)
	GetUserByEmail(ctx context.Context, email string) (*modelledger.User, error)
	GetTask(ctx context.Context, id string) (*modelledger.Task, error)
	GetSubmission(ctx context.Context, id string) (*modelledger.Submission, error)
	GetTransaction(ctx context.Context, id string) (*modelledger.Transaction, error)
	ListUsers(ctx context.Context, filter modelledger.UserFilter) ([]*modelledger.User, error)
	ListTasks(ctx context.Context, filter modelledger.TaskFilter) ([]*modelledger.Task, error)
	ListSubmissions(ctx context.Context, filter modelledger.SubmissionFilter) ([]*modelledger.Submission, error)
	ListTransactions(ctx context.Context, filter modelledger.TransactionFilter) ([]*modelledger.Transaction, error)
}

// Tx is the view of the ledger inside an atomic unit. Reads through a Tx
// lock the records they return until the unit ends.
type Tx interface {
	Reader
	InsertUser(ctx context.Context, user *modelledger.User) error
	UpdateUser(ctx context.Context, user *modelledger.User) error
	InsertTask(ctx context.Context, task *modelledger.Task) error
	UpdateTask(ctx context.Context, task *modelledger.Task) error
	InsertSubmission(ctx context.Context, submission *modelledger.Submission) error
	UpdateSubmission(ctx context.Context, submission *modelledger.Submission) error
	InsertTransaction(ctx context.Context, transaction *modelledger.Transaction) error
	UpdateTransaction(ctx context.Context, transaction *modelledger.Transaction) error
}

// TxFunc is the body of an atomic unit.
type TxFunc func(ctx context.Context, tx Tx) error

// Ledger is the durable store for users, tasks, submissions and transactions.
type Ledger interface {
	Reader
	// AtomicUpdate runs fn as a single indivisible unit. Any error returned by
	// fn discards every write fn made.
	AtomicUpdate(ctx context.Context, fn TxFunc) error
	Close() error
}
