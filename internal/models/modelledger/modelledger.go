// Package modelledger provides the ledger entities shared by storage and services.
package modelledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role marks the capability of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// TaskStatus is the catalog lifecycle of a task.
type TaskStatus string

const (
	TaskActive   TaskStatus = "active"
	TaskInactive TaskStatus = "inactive"
)

// SubmissionStatus is the moderation state of a submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Terminal reports whether no further transition may leave the status.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

// TransactionType distinguishes money flowing in from money flowing out.
type TransactionType string

const (
	TransactionEarning    TransactionType = "earning"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionRejected  TransactionStatus = "rejected"
)

// Terminal reports whether no further transition may leave the status.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionCompleted || s == TransactionRejected
}

type (
	// User is an account holder with a wallet.
	User struct {
		ID             string
		Name           string
		Email          string
		PasswordHash   string
		Role           Role
		WalletBalance  decimal.Decimal
		TasksCompleted int
		CreatedAt      time.Time
	}
	// Task is a catalog entry users can complete for a reward.
	Task struct {
		ID           string
		Title        string
		Description  string
		Category     string
		Requirements string
		Reward       decimal.Decimal
		Status       TaskStatus
		CreatedAt    time.Time
	}
	// Submission is a user's claim that a task was completed.
	Submission struct {
		ID         string
		UserID     string
		TaskID     string
		TaskTitle  string
		Proof      string
		Reward     decimal.Decimal
		Status     SubmissionStatus
		AdminNote  string
		CreatedAt  time.Time
		ReviewedAt *time.Time
	}
	// Transaction records money moving into or out of a wallet.
	Transaction struct {
		ID           string
		UserID       string
		Type         TransactionType
		Amount       decimal.Decimal
		Status       TransactionStatus
		Method       string
		Details      string
		SubmissionID string
		CreatedAt    time.Time
		FinalizedAt  *time.Time
	}
)

// IsAdmin reports whether the user holds the admin capability.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Filters narrow list queries; zero-valued fields match everything.
type (
	UserFilter struct {
		Role Role
	}
	TaskFilter struct {
		Status TaskStatus
	}
	SubmissionFilter struct {
		UserID string
		TaskID string
		Status SubmissionStatus
	}
	TransactionFilter struct {
		UserID string
		Type   TransactionType
		Status TransactionStatus
	}
)

// Match reports whether u satisfies the filter.
func (f UserFilter) Match(u *User) bool {
	return f.Role == "" || u.Role == f.Role
}

// Match reports whether t satisfies the filter.
func (f TaskFilter) Match(t *Task) bool {
	return f.Status == "" || t.Status == f.Status
}

// Match reports whether s satisfies the filter.
func (f SubmissionFilter) Match(s *Submission) bool {
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if f.TaskID != "" && s.TaskID != f.TaskID {
		return false
	}
	return f.Status == "" || s.Status == f.Status
}

// Match reports whether t satisfies the filter.
func (f TransactionFilter) Match(t *Transaction) bool {
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return f.Status == "" || t.Status == f.Status
}
