// Package inmemory provides a process-local ledger store.
//
// Atomic units run under the store-wide write lock against a staging copy of
// the touched records; the copy is published only when the unit succeeds.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/rs/zerolog"
)

type tables struct {
	users        map[string]modelledger.User
	tasks        map[string]modelledger.Task
	submissions  map[string]modelledger.Submission
	transactions map[string]modelledger.Transaction
}

func newTables() *tables {
	return &tables{
		users:        make(map[string]modelledger.User),
		tasks:        make(map[string]modelledger.Task),
		submissions:  make(map[string]modelledger.Submission),
		transactions: make(map[string]modelledger.Transaction),
	}
}

// Storage is a storage.Ledger kept in process memory.
type Storage struct {
	mu   sync.RWMutex
	data *tables
	log  *zerolog.Logger
}

var _ storage.Ledger = (*Storage)(nil)

// InitStorage creates an empty store.
func InitStorage(log *zerolog.Logger) *Storage {
	log.Info().Msg("in-memory storage initialized")
	return &Storage{data: newTables(), log: log}
}

// AtomicUpdate runs fn with exclusive access to the store.
func (s *Storage) AtomicUpdate(ctx context.Context, fn storage.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txView{base: s.data, staged: newTables()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	tx.publish()
	return nil
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) view() *txView {
	return &txView{base: s.data}
}

func (s *Storage) GetUser(ctx context.Context, id string) (*modelledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetUser(ctx, id)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*modelledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetUserByEmail(ctx, email)
}

func (s *Storage) GetTask(ctx context.Context, id string) (*modelledger.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetTask(ctx, id)
}

func (s *Storage) GetSubmission(ctx context.Context, id string) (*modelledger.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetSubmission(ctx, id)
}

func (s *Storage) GetTransaction(ctx context.Context, id string) (*modelledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetTransaction(ctx, id)
}

func (s *Storage) ListUsers(ctx context.Context, filter modelledger.UserFilter) ([]*modelledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListUsers(ctx, filter)
}

func (s *Storage) ListTasks(ctx context.Context, filter modelledger.TaskFilter) ([]*modelledger.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListTasks(ctx, filter)
}

func (s *Storage) ListSubmissions(ctx context.Context, filter modelledger.SubmissionFilter) ([]*modelledger.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListSubmissions(ctx, filter)
}

func (s *Storage) ListTransactions(ctx context.Context, filter modelledger.TransactionFilter) ([]*modelledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListTransactions(ctx, filter)
}

// txView reads staged records first and falls back to the committed ones.
// Values are copied in and out so callers never alias stored records.
type txView struct {
	base   *tables
	staged *tables
}

func (t *txView) publish() {
	for k, v := range t.staged.users {
		t.base.users[k] = v
	}
	for k, v := range t.staged.tasks {
		t.base.tasks[k] = v
	}
	for k, v := range t.staged.submissions {
		t.base.submissions[k] = v
	}
	for k, v := range t.staged.transactions {
		t.base.transactions[k] = v
	}
}

func (t *txView) user(id string) (modelledger.User, bool) {
	if t.staged != nil {
		if u, ok := t.staged.users[id]; ok {
			return u, true
		}
	}
	u, ok := t.base.users[id]
	return u, ok
}

func (t *txView) task(id string) (modelledger.Task, bool) {
	if t.staged != nil {
		if v, ok := t.staged.tasks[id]; ok {
			return v, true
		}
	}
	v, ok := t.base.tasks[id]
	return v, ok
}

func (t *txView) submission(id string) (modelledger.Submission, bool) {
	if t.staged != nil {
		if v, ok := t.staged.submissions[id]; ok {
			return v, true
		}
	}
	v, ok := t.base.submissions[id]
	return v, ok
}

func (t *txView) transaction(id string) (modelledger.Transaction, bool) {
	if t.staged != nil {
		if v, ok := t.staged.transactions[id]; ok {
			return v, true
		}
	}
	v, ok := t.base.transactions[id]
	return v, ok
}

func (t *txView) GetUser(_ context.Context, id string) (*modelledger.User, error) {
	u, ok := t.user(id)
	if !ok {
		return nil, &storageErrors.NotFoundError{Entity: "user", ID: id}
	}
	return &u, nil
}

func (t *txView) GetUserByEmail(ctx context.Context, email string) (*modelledger.User, error) {
	users, _ := t.ListUsers(ctx, modelledger.UserFilter{})
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &storageErrors.NotFoundError{Entity: "user", ID: email}
}

func (t *txView) GetTask(_ context.Context, id string) (*modelledger.Task, error) {
	v, ok := t.task(id)
	if !ok {
		return nil, &storageErrors.NotFoundError{Entity: "task", ID: id}
	}
	return &v, nil
}

func (t *txView) GetSubmission(_ context.Context, id string) (*modelledger.Submission, error) {
	v, ok := t.submission(id)
	if !ok {
		return nil, &storageErrors.NotFoundError{Entity: "submission", ID: id}
	}
	return &v, nil
}

func (t *txView) GetTransaction(_ context.Context, id string) (*modelledger.Transaction, error) {
	v, ok := t.transaction(id)
	if !ok {
		return nil, &storageErrors.NotFoundError{Entity: "transaction", ID: id}
	}
	return &v, nil
}

// keys returns the union of committed and staged ids.
func keys[V any](base, staged map[string]V) []string {
	seen := make(map[string]struct{}, len(base))
	out := make([]string, 0, len(base))
	for k := range base {
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for k := range staged {
		if _, ok := seen[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

func (t *txView) stagedTables() *tables {
	if t.staged == nil {
		return newTables()
	}
	return t.staged
}

func (t *txView) ListUsers(_ context.Context, filter modelledger.UserFilter) ([]*modelledger.User, error) {
	var out []*modelledger.User
	for _, id := range keys(t.base.users, t.stagedTables().users) {
		u, _ := t.user(id)
		if filter.Match(&u) {
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return less(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return out, nil
}

func (t *txView) ListTasks(_ context.Context, filter modelledger.TaskFilter) ([]*modelledger.Task, error) {
	var out []*modelledger.Task
	for _, id := range keys(t.base.tasks, t.stagedTables().tasks) {
		v, _ := t.task(id)
		if filter.Match(&v) {
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return less(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return out, nil
}

func (t *txView) ListSubmissions(_ context.Context, filter modelledger.SubmissionFilter) ([]*modelledger.Submission, error) {
	var out []*modelledger.Submission
	for _, id := range keys(t.base.submissions, t.stagedTables().submissions) {
		v, _ := t.submission(id)
		if filter.Match(&v) {
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return less(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return out, nil
}

func (t *txView) ListTransactions(_ context.Context, filter modelledger.TransactionFilter) ([]*modelledger.Transaction, error) {
	var out []*modelledger.Transaction
	for _, id := range keys(t.base.transactions, t.stagedTables().transactions) {
		v, _ := t.transaction(id)
		if filter.Match(&v) {
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return less(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return out, nil
}

func less(ti, tj int64, idi, idj string) bool {
	if ti != tj {
		return ti < tj
	}
	return idi < idj
}

func (t *txView) InsertUser(ctx context.Context, user *modelledger.User) error {
	if _, ok := t.user(user.ID); ok {
		return &storageErrors.AlreadyExistsError{Entity: "user", ID: user.ID}
	}
	if _, err := t.GetUserByEmail(ctx, user.Email); err == nil {
		return &storageErrors.AlreadyExistsError{Entity: "user", ID: user.Email}
	}
	t.staged.users[user.ID] = *user
	return nil
}

func (t *txView) UpdateUser(_ context.Context, user *modelledger.User) error {
	if _, ok := t.user(user.ID); !ok {
		return &storageErrors.NotFoundError{Entity: "user", ID: user.ID}
	}
	if user.WalletBalance.IsNegative() || user.TasksCompleted < 0 {
		return &storageErrors.ExecutionError{Err: errors.New("users: check constraint violated")}
	}
	t.staged.users[user.ID] = *user
	return nil
}

func (t *txView) InsertTask(_ context.Context, task *modelledger.Task) error {
	if _, ok := t.task(task.ID); ok {
		return &storageErrors.AlreadyExistsError{Entity: "task", ID: task.ID}
	}
	t.staged.tasks[task.ID] = *task
	return nil
}

func (t *txView) UpdateTask(_ context.Context, task *modelledger.Task) error {
	if _, ok := t.task(task.ID); !ok {
		return &storageErrors.NotFoundError{Entity: "task", ID: task.ID}
	}
	t.staged.tasks[task.ID] = *task
	return nil
}

// pendingTaken mirrors the partial unique index of the SQL stores.
func (t *txView) pendingTaken(s *modelledger.Submission) bool {
	if s.Status != modelledger.SubmissionPending {
		return false
	}
	for _, id := range keys(t.base.submissions, t.staged.submissions) {
		other, _ := t.submission(id)
		if other.ID != s.ID && other.UserID == s.UserID && other.TaskID == s.TaskID && other.Status == modelledger.SubmissionPending {
			return true
		}
	}
	return false
}

func (t *txView) InsertSubmission(_ context.Context, submission *modelledger.Submission) error {
	if _, ok := t.submission(submission.ID); ok {
		return &storageErrors.AlreadyExistsError{Entity: "submission", ID: submission.ID}
	}
	if t.pendingTaken(submission) {
		return &storageErrors.AlreadyExistsError{Entity: "submission", ID: submission.UserID + "/" + submission.TaskID}
	}
	t.staged.submissions[submission.ID] = *submission
	return nil
}

func (t *txView) UpdateSubmission(_ context.Context, submission *modelledger.Submission) error {
	if _, ok := t.submission(submission.ID); !ok {
		return &storageErrors.NotFoundError{Entity: "submission", ID: submission.ID}
	}
	if t.pendingTaken(submission) {
		return &storageErrors.AlreadyExistsError{Entity: "submission", ID: submission.UserID + "/" + submission.TaskID}
	}
	t.staged.submissions[submission.ID] = *submission
	return nil
}

func (t *txView) InsertTransaction(_ context.Context, transaction *modelledger.Transaction) error {
	if _, ok := t.transaction(transaction.ID); ok {
		return &storageErrors.AlreadyExistsError{Entity: "transaction", ID: transaction.ID}
	}
	t.staged.transactions[transaction.ID] = *transaction
	return nil
}

func (t *txView) UpdateTransaction(_ context.Context, transaction *modelledger.Transaction) error {
	if _, ok := t.transaction(transaction.ID); !ok {
		return &storageErrors.NotFoundError{Entity: "transaction", ID: transaction.ID}
	}
	t.staged.transactions[transaction.ID] = *transaction
	return nil
}
