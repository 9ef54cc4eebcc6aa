// Package storagetest holds behavioural checks every storage.Ledger backend must pass.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func user(id string) *modelledger.User {
	return &modelledger.User{
		ID:            id,
		Name:          "User " + id,
		Email:         id + "@example.com",
		PasswordHash:  "hash",
		Role:          modelledger.RoleUser,
		WalletBalance: decimal.Zero,
		CreatedAt:     epoch,
	}
}

func task(id string) *modelledger.Task {
	return &modelledger.Task{
		ID:        id,
		Title:     "Task " + id,
		Reward:    decimal.RequireFromString("50.00"),
		Status:    modelledger.TaskActive,
		CreatedAt: epoch,
	}
}

func submission(id, userID, taskID string, at time.Time) *modelledger.Submission {
	return &modelledger.Submission{
		ID:        id,
		UserID:    userID,
		TaskID:    taskID,
		TaskTitle: "Task " + taskID,
		Proof:     "https://example.com/proof",
		Reward:    decimal.RequireFromString("50.00"),
		Status:    modelledger.SubmissionPending,
		CreatedAt: at,
	}
}

func seed(t *testing.T, l storage.Ledger) {
	t.Helper()
	err := l.AtomicUpdate(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		for _, id := range []string{"u1", "u2"} {
			if err := tx.InsertUser(ctx, user(id)); err != nil {
				return err
			}
		}
		for _, id := range []string{"t1", "t2"} {
			if err := tx.InsertTask(ctx, task(id)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// Run exercises newLedger's backend. Every call of newLedger must return an empty ledger.
func Run(t *testing.T, newLedger func(t *testing.T) storage.Ledger) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newLedger(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newLedger(t)) })
	t.Run("Duplicates", func(t *testing.T) { testDuplicates(t, newLedger(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newLedger(t)) })
	t.Run("OnePendingPerPair", func(t *testing.T) { testOnePending(t, newLedger(t)) })
	t.Run("NegativeBalanceRejected", func(t *testing.T) { testNegativeBalance(t, newLedger(t)) })
	t.Run("Filters", func(t *testing.T) { testFilters(t, newLedger(t)) })
	t.Run("SerializedUnits", func(t *testing.T) { testSerializedUnits(t, newLedger(t)) })
}

func testRoundTrip(t *testing.T, l storage.Ledger) {
	ctx := context.Background()
	seed(t, l)

	reviewed := epoch.Add(time.Hour)
	err := l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		s := submission("s1", "u1", "t1", epoch.Add(time.Minute))
		if err := tx.InsertSubmission(ctx, s); err != nil {
			return err
		}
		s.Status = modelledger.SubmissionApproved
		s.AdminNote = "ok"
		s.ReviewedAt = &reviewed
		if err := tx.UpdateSubmission(ctx, s); err != nil {
			return err
		}
		u, err := tx.GetUser(ctx, "u1")
		if err != nil {
			return err
		}
		u.WalletBalance = u.WalletBalance.Add(s.Reward)
		u.TasksCompleted++
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		return tx.InsertTransaction(ctx, &modelledger.Transaction{
			ID:           "x1",
			UserID:       "u1",
			Type:         modelledger.TransactionEarning,
			Amount:       s.Reward,
			Status:       modelledger.TransactionCompleted,
			SubmissionID: "s1",
			CreatedAt:    reviewed,
			FinalizedAt:  &reviewed,
		})
	})
	require.NoError(t, err)

	s, err := l.GetSubmission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, modelledger.SubmissionApproved, s.Status)
	assert.Equal(t, "ok", s.AdminNote)
	require.NotNil(t, s.ReviewedAt)
	assert.True(t, s.ReviewedAt.Equal(reviewed))
	assert.True(t, s.Reward.Equal(decimal.RequireFromString("50")))

	u, err := l.GetUserByEmail(ctx, "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.WalletBalance.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, 1, u.TasksCompleted)

	x, err := l.GetTransaction(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, "s1", x.SubmissionID)
	assert.Equal(t, modelledger.TransactionCompleted, x.Status)
	require.NotNil(t, x.FinalizedAt)
}

func testNotFound(t *testing.T, l storage.Ledger) {
	ctx := context.Background()
	var notFoundError *storageErrors.NotFoundError

	_, err := l.GetUser(ctx, "nobody")
	assert.True(t, errors.As(err, &notFoundError))
	_, err = l.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.As(err, &notFoundError))
	_, err = l.GetTask(ctx, "none")
	assert.True(t, errors.As(err, &notFoundError))
	_, err = l.GetSubmission(ctx, "none")
	assert.True(t, errors.As(err, &notFoundError))
	_, err = l.GetTransaction(ctx, "none")
	assert.True(t, errors.As(err, &notFoundError))

	err = l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.UpdateTask(ctx, task("none"))
	})
	assert.True(t, errors.As(err, &notFoundError))
}

func testDuplicates(t *testing.T, l storage.Ledger) {
	ctx := context.Background()
	seed(t, l)
	var alreadyExistsError *storageErrors.AlreadyExistsError

	err := l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertUser(ctx, user("u1"))
	})
	assert.True(t, errors.As(err, &alreadyExistsError))

	other := user("u3")
	other.Email = "u1@example.com"
	err = l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertUser(ctx, other)
	})
	assert.True(t, errors.As(err, &alreadyExistsError))
}

func testRollback(t *testing.T, l storage.Ledger) {
	ctx := context.Background()
	seed(t, l)

	boom := errors.New("boom")
	err := l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		u, err := tx.GetUser(ctx, "u1")
		if err != nil {
			return err
		}
		u.WalletBalance = decimal.RequireFromString("999.99")
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		if err := tx.InsertSubmission(ctx, submission("s1", "u1", "t1", epoch)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	u, err := l.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.WalletBalance.IsZero())
	_, err = l.GetSubmission(ctx, "s1")
	var notFoundError *storageErrors.NotFoundError
	assert.True(t, errors.As(err, &notFoundError))
}

func testOnePending(t *testing.T, l storage.Ledger) {
	ctx := context.Background()
	seed(t, l)
	insert := func(s *modelledger.Submission) error {
		return l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.InsertSubmission(ctx, s)
		})
	}

	require.NoError(t, insert(submission("s1", "u1", "t1", epoch)))
	err := insert(submission("s2", "u1", "t1", epoch.Add(time.Second)))
	var alreadyExistsError *storageErrors.AlreadyExistsError
	assert.True(t, errors.As(err, &alreadyExistsError))

	// other pairs are unaffected
	require.NoError(t, insert(submission("s3", "u1", "t2", epoch)))
	require.NoError(t, insert(submission("s4", "u2", "t1", epoch)))

	// once reviewed, the pair is free again
	err = l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		s, err := tx.GetSubmission(ctx, "s1")
		if err != nil {
			return err
		}
		s.Status = modelledger.SubmissionRejected
		return tx.UpdateSubmission(ctx, s)
	})
	require.NoError(t, err)
	require.NoError(t, insert(submission("s5", "u1", "t1", epoch.Add(time.Minute))))
}

func testNegativeBalance(t *testing.T, l storage.Ledger) {
	ctx := context.Background()
	seed(t, l)
	err := l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		u, err := tx.GetUser(ctx, "u1")
		if err != nil {
			return err
		}
		u.WalletBalance = decimal.RequireFromString("-0.01")
		return tx.UpdateUser(ctx, u)
	})
	assert.Error(t, err)
}

func testFilters(t *testing.T, l storage.Ledger) {
	ctx := context.Background()
	seed(t, l)
	err := l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		admin := user("a1")
		admin.Role = modelledger.RoleAdmin
		if err := tx.InsertUser(ctx, admin); err != nil {
			return err
		}
		inactive := task("t3")
		inactive.Status = modelledger.TaskInactive
		if err := tx.InsertTask(ctx, inactive); err != nil {
			return err
		}
		for i, pair := range [][2]string{{"u1", "t1"}, {"u1", "t2"}, {"u2", "t1"}} {
			s := submission(fmt.Sprintf("s%d", i), pair[0], pair[1], epoch.Add(time.Duration(i)*time.Minute))
			if err := tx.InsertSubmission(ctx, s); err != nil {
				return err
			}
		}
		for i, kind := range []modelledger.TransactionType{modelledger.TransactionEarning, modelledger.TransactionWithdrawal} {
			if err := tx.InsertTransaction(ctx, &modelledger.Transaction{
				ID:        fmt.Sprintf("x%d", i),
				UserID:    "u1",
				Type:      kind,
				Amount:    decimal.RequireFromString("10"),
				Status:    modelledger.TransactionPending,
				CreatedAt: epoch.Add(time.Duration(i) * time.Minute),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	admins, err := l.ListUsers(ctx, modelledger.UserFilter{Role: modelledger.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "a1", admins[0].ID)

	active, err := l.ListTasks(ctx, modelledger.TaskFilter{Status: modelledger.TaskActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)
	all, err := l.ListTasks(ctx, modelledger.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := l.ListSubmissions(ctx, modelledger.SubmissionFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "s0", mine[0].ID)
	assert.Equal(t, "s1", mine[1].ID)
	byTask, err := l.ListSubmissions(ctx, modelledger.SubmissionFilter{TaskID: "t1", Status: modelledger.SubmissionPending})
	require.NoError(t, err)
	assert.Len(t, byTask, 2)

	withdrawals, err := l.ListTransactions(ctx, modelledger.TransactionFilter{Type: modelledger.TransactionWithdrawal})
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, "x1", withdrawals[0].ID)
}

func testSerializedUnits(t *testing.T, l storage.Ledger) {
	ctx := context.Background()
	seed(t, l)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
				u, err := tx.GetUser(ctx, "u1")
				if err != nil {
					return err
				}
				u.WalletBalance = u.WalletBalance.Add(decimal.NewFromInt(1))
				return tx.UpdateUser(ctx, u)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	u, err := l.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.WalletBalance.Equal(decimal.NewFromInt(workers)), u.WalletBalance.String())
}
