// Package modeldto provides the JSON shapes of the REST API.
package modeldto

import (
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/shopspring/decimal"
)

// Money is an amount rendered as a JSON number with two decimals. It accepts
// both numbers and quoted strings on input.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(modelledger.MoneyScale)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

type (
	Registration struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	Auth struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	User struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		Email          string    `json:"email"`
		Role           string    `json:"role"`
		Wallet         Money     `json:"wallet"`
		TasksCompleted int       `json:"tasksCompleted"`
		CreatedAt      time.Time `json:"createdAt"`
	}
	Task struct {
		ID           string    `json:"id"`
		Title        string    `json:"title"`
		Description  string    `json:"description"`
		Category     string    `json:"category"`
		Requirements string    `json:"requirements"`
		Reward       Money     `json:"reward"`
		Status       string    `json:"status"`
		CreatedAt    time.Time `json:"createdAt"`
	}
	TaskDraft struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		Category     string `json:"category"`
		Requirements string `json:"requirements"`
		Reward       Money  `json:"reward"`
	}
	TaskPatch struct {
		Title        *string `json:"title,omitempty"`
		Description  *string `json:"description,omitempty"`
		Category     *string `json:"category,omitempty"`
		Requirements *string `json:"requirements,omitempty"`
		Reward       *Money  `json:"reward,omitempty"`
		Status       *string `json:"status,omitempty"`
	}
	NewSubmission struct {
		TaskID string `json:"taskId"`
		Proof  string `json:"proof"`
	}
	Submission struct {
		ID         string     `json:"id"`
		UserID     string     `json:"userId"`
		TaskID     string     `json:"taskId"`
		TaskTitle  string     `json:"taskTitle"`
		Proof      string     `json:"proof"`
		Reward     Money      `json:"reward"`
		Status     string     `json:"status"`
		AdminNote  string     `json:"adminNote,omitempty"`
		CreatedAt  time.Time  `json:"createdAt"`
		ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	}
	Review struct {
		Status    string `json:"status"`
		AdminNote string `json:"adminNote"`
	}
	NewWithdrawal struct {
		Amount  Money  `json:"amount"`
		Method  string `json:"method"`
		Details string `json:"details"`
	}
	Transaction struct {
		ID           string     `json:"id"`
		UserID       string     `json:"userId"`
		Type         string     `json:"type"`
		Amount       Money      `json:"amount"`
		Status       string     `json:"status"`
		Method       string     `json:"method,omitempty"`
		Details      string     `json:"details,omitempty"`
		SubmissionID string     `json:"submissionId,omitempty"`
		CreatedAt    time.Time  `json:"createdAt"`
		FinalizedAt  *time.Time `json:"finalizedAt,omitempty"`
	}
	Finalization struct {
		Status string `json:"status"`
	}
	AuditReport struct {
		UserID     string `json:"userId"`
		Recorded   Money  `json:"recorded"`
		Expected   Money  `json:"expected"`
		Earned     Money  `json:"earned"`
		Withdrawn  Money  `json:"withdrawn"`
		Consistent bool   `json:"consistent"`
	}
	Error struct {
		Message string `json:"message"`
		Reason  string `json:"reason,omitempty"`
	}
)

func FromUser(u *modelledger.User) User {
	return User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           string(u.Role),
		Wallet:         NewMoney(u.WalletBalance),
		TasksCompleted: u.TasksCompleted,
		CreatedAt:      u.CreatedAt,
	}
}

func FromTask(t *modelledger.Task) Task {
	return Task{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Category:     t.Category,
		Requirements: t.Requirements,
		Reward:       NewMoney(t.Reward),
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt,
	}
}

func FromSubmission(s *modelledger.Submission) Submission {
	return Submission{
		ID:         s.ID,
		UserID:     s.UserID,
		TaskID:     s.TaskID,
		TaskTitle:  s.TaskTitle,
		Proof:      s.Proof,
		Reward:     NewMoney(s.Reward),
		Status:     string(s.Status),
		AdminNote:  s.AdminNote,
		CreatedAt:  s.CreatedAt,
		ReviewedAt: s.ReviewedAt,
	}
}

func FromTransaction(t *modelledger.Transaction) Transaction {
	return Transaction{
		ID:           t.ID,
		UserID:       t.UserID,
		Type:         string(t.Type),
		Amount:       NewMoney(t.Amount),
		Status:       string(t.Status),
		Method:       t.Method,
		Details:      t.Details,
		SubmissionID: t.SubmissionID,
		CreatedAt:    t.CreatedAt,
		FinalizedAt:  t.FinalizedAt,
	}
}

// Users, Tasks, Submissions and Transactions convert lists; the result is
// never nil so it encodes as [].
func Users(in []*modelledger.User) []User {
	out := make([]User, 0, len(in))
	for _, u := range in {
		out = append(out, FromUser(u))
	}
	return out
}

func Tasks(in []*modelledger.Task) []Task {
	out := make([]Task, 0, len(in))
	for _, t := range in {
		out = append(out, FromTask(t))
	}
	return out
}

func Submissions(in []*modelledger.Submission) []Submission {
	out := make([]Submission, 0, len(in))
	for _, s := range in {
		out = append(out, FromSubmission(s))
	}
	return out
}

func Transactions(in []*modelledger.Transaction) []Transaction {
	out := make([]Transaction, 0, len(in))
	for _, t := range in {
		out = append(out, FromTransaction(t))
	}
	return out
}
