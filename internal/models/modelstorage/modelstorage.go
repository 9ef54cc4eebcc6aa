// Package modelstorage provides row types for querying relational DBs.
// Amounts are stored as integer cents, timestamps as unix microseconds.
package modelstorage

import (
	"database/sql"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
)

type UserStorageEntry struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	Email          string `db:"email"`
	PasswordHash   string `db:"password_hash"`
	Role           string `db:"role"`
	WalletBalance  int64  `db:"wallet_balance"`
	TasksCompleted int    `db:"tasks_completed"`
	CreatedAt      int64  `db:"created_at"`
}

type TaskStorageEntry struct {
	ID           string `db:"id"`
	Title        string `db:"title"`
	Description  string `db:"description"`
	Category     string `db:"category"`
	Requirements string `db:"requirements"`
	Reward       int64  `db:"reward"`
	Status       string `db:"status"`
	CreatedAt    int64  `db:"created_at"`
}

type SubmissionStorageEntry struct {
	ID         string        `db:"id"`
	UserID     string        `db:"user_id"`
	TaskID     string        `db:"task_id"`
	TaskTitle  string        `db:"task_title"`
	Proof      string        `db:"proof"`
	Reward     int64         `db:"reward"`
	Status     string        `db:"status"`
	AdminNote  string        `db:"admin_note"`
	CreatedAt  int64         `db:"created_at"`
	ReviewedAt sql.NullInt64 `db:"reviewed_at"`
}

type TransactionStorageEntry struct {
	ID           string        `db:"id"`
	UserID       string        `db:"user_id"`
	Type         string        `db:"type"`
	Amount       int64         `db:"amount"`
	Status       string        `db:"status"`
	Method       string        `db:"method"`
	Details      string        `db:"details"`
	SubmissionID string        `db:"submission_id"`
	CreatedAt    int64         `db:"created_at"`
	FinalizedAt  sql.NullInt64 `db:"finalized_at"`
}

// NewUserStorageEntry converts a user to its row form.
func NewUserStorageEntry(u *modelledger.User) UserStorageEntry {
	return UserStorageEntry{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           string(u.Role),
		WalletBalance:  modelledger.ToCents(u.WalletBalance),
		TasksCompleted: u.TasksCompleted,
		CreatedAt:      toMicro(u.CreatedAt),
	}
}

// ToModel converts the row back to a user.
func (e UserStorageEntry) ToModel() *modelledger.User {
	return &modelledger.User{
		ID:             e.ID,
		Name:           e.Name,
		Email:          e.Email,
		PasswordHash:   e.PasswordHash,
		Role:           modelledger.Role(e.Role),
		WalletBalance:  modelledger.FromCents(e.WalletBalance),
		TasksCompleted: e.TasksCompleted,
		CreatedAt:      fromMicro(e.CreatedAt),
	}
}

// NewTaskStorageEntry converts a task to its row form.
func NewTaskStorageEntry(t *modelledger.Task) TaskStorageEntry {
	return TaskStorageEntry{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Category:     t.Category,
		Requirements: t.Requirements,
		Reward:       modelledger.ToCents(t.Reward),
		Status:       string(t.Status),
		CreatedAt:    toMicro(t.CreatedAt),
	}
}

// ToModel converts the row back to a task.
func (e TaskStorageEntry) ToModel() *modelledger.Task {
	return &modelledger.Task{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Category:     e.Category,
		Requirements: e.Requirements,
		Reward:       modelledger.FromCents(e.Reward),
		Status:       modelledger.TaskStatus(e.Status),
		CreatedAt:    fromMicro(e.CreatedAt),
	}
}

// NewSubmissionStorageEntry converts a submission to its row form.
func NewSubmissionStorageEntry(s *modelledger.Submission) SubmissionStorageEntry {
	return SubmissionStorageEntry{
		ID:         s.ID,
		UserID:     s.UserID,
		TaskID:     s.TaskID,
		TaskTitle:  s.TaskTitle,
		Proof:      s.Proof,
		Reward:     modelledger.ToCents(s.Reward),
		Status:     string(s.Status),
		AdminNote:  s.AdminNote,
		CreatedAt:  toMicro(s.CreatedAt),
		ReviewedAt: toNullMicro(s.ReviewedAt),
	}
}

// ToModel converts the row back to a submission.
func (e SubmissionStorageEntry) ToModel() *modelledger.Submission {
	return &modelledger.Submission{
		ID:         e.ID,
		UserID:     e.UserID,
		TaskID:     e.TaskID,
		TaskTitle:  e.TaskTitle,
		Proof:      e.Proof,
		Reward:     modelledger.FromCents(e.Reward),
		Status:     modelledger.SubmissionStatus(e.Status),
		AdminNote:  e.AdminNote,
		CreatedAt:  fromMicro(e.CreatedAt),
		ReviewedAt: fromNullMicro(e.ReviewedAt),
	}
}

// NewTransactionStorageEntry converts a transaction to its row form.
func NewTransactionStorageEntry(t *modelledger.Transaction) TransactionStorageEntry {
	return TransactionStorageEntry{
		ID:           t.ID,
		UserID:       t.UserID,
		Type:         string(t.Type),
		Amount:       modelledger.ToCents(t.Amount),
		Status:       string(t.Status),
		Method:       t.Method,
		Details:      t.Details,
		SubmissionID: t.SubmissionID,
		CreatedAt:    toMicro(t.CreatedAt),
		FinalizedAt:  toNullMicro(t.FinalizedAt),
	}
}

// ToModel converts the row back to a transaction.
func (e TransactionStorageEntry) ToModel() *modelledger.Transaction {
	return &modelledger.Transaction{
		ID:           e.ID,
		UserID:       e.UserID,
		Type:         modelledger.TransactionType(e.Type),
		Amount:       modelledger.FromCents(e.Amount),
		Status:       modelledger.TransactionStatus(e.Status),
		Method:       e.Method,
		Details:      e.Details,
		SubmissionID: e.SubmissionID,
		CreatedAt:    fromMicro(e.CreatedAt),
		FinalizedAt:  fromNullMicro(e.FinalizedAt),
	}
}

func toMicro(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicro(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

func toNullMicro(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMicro(), Valid: true}
}

func fromNullMicro(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicro(v.Int64)
	return &t
}
