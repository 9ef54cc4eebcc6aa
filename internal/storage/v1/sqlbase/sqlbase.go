// Package sqlbase implements the ledger store on top of database/sql.
// Driver specifics (placeholders, row locking, error codes) come from a Dialect.
package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelstorage"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/rs/zerolog"
)

// Dialect describes how a particular SQL engine is driven.
type Dialect struct {
	Name string
	// Rebind rewrites '?' placeholders into the engine's native form.
	Rebind func(query string) string
	// ForUpdate is appended to single-row reads made inside a transaction.
	ForUpdate string
	// ForShare is appended to reads of rows a transaction depends on but
	// does not modify.
	ForShare string
	// Classify maps a driver error onto the storage error taxonomy.
	Classify func(err error) error
	// CommitSafeToRetry reports whether a failed commit provably never
	// reached the server. When nil, an unavailable commit is never retried.
	CommitSafeToRetry func(err error) bool
	// TxOptions are used when opening an atomic unit.
	TxOptions *sql.TxOptions
}

// DollarRebind replaces '?' placeholders with $1, $2, ...
func DollarRebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// QuestionRebind leaves the query untouched.
func QuestionRebind(query string) string {
	return query
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is a storage.Ledger backed by a *sql.DB.
type Store struct {
	queries
	DB  *sql.DB
	log *zerolog.Logger
}

var _ storage.Ledger = (*Store)(nil)

// New wraps an opened database handle.
func New(db *sql.DB, dialect Dialect, log *zerolog.Logger) *Store {
	return &Store{
		queries: queries{q: db, dialect: dialect},
		DB:      db,
		log:     log,
	}
}

// Migrate executes the given statements in order.
func (s *Store) Migrate(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			s.log.Error().Err(err).Str("dialect", s.dialect.Name).Msg("schema migration failed")
			return &storageErrors.ExecutionError{Err: err}
		}
	}
	s.log.Info().Str("dialect", s.dialect.Name).Msg("schema migration done")
	return nil
}

// AtomicUpdate runs fn inside a database transaction.
func (s *Store) AtomicUpdate(ctx context.Context, fn storage.TxFunc) error {
	tx, err := s.DB.BeginTx(ctx, s.dialect.TxOptions)
	if err != nil {
		err = s.fail(ctx, err)
		s.log.Error().Err(err).Msg("atomic update begin failed")
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, &queries{q: tx, dialect: s.dialect, lock: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		err = s.commitFailed(ctx, err)
		s.log.Error().Err(err).Msg("atomic update commit failed")
		return err
	}
	return nil
}

// commitFailed classifies a commit error. A lost connection leaves the
// outcome unknown unless the driver can prove nothing was sent.
func (s *Store) commitFailed(ctx context.Context, err error) error {
	classified := s.fail(ctx, err)
	var unavailableError *storageErrors.UnavailableError
	if !errors.As(classified, &unavailableError) {
		return classified
	}
	if s.dialect.CommitSafeToRetry != nil && s.dialect.CommitSafeToRetry(err) {
		return classified
	}
	return &storageErrors.CommitUnknownError{Err: err}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

// queries implements storage.Tx over any querier. Outside a transaction the
// write methods are never reached because Store exposes only Reader.
type queries struct {
	q       querier
	dialect Dialect
	lock    bool
}

func (q *queries) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	}
	if q.dialect.Classify != nil {
		return q.dialect.Classify(err)
	}
	return &storageErrors.ExecutionError{Err: err}
}

func (q *queries) rebind(query string) string {
	return q.dialect.Rebind(query)
}

func (q *queries) single(query string) string {
	if q.lock {
		query += q.dialect.ForUpdate
	}
	return q.rebind(query)
}

func (q *queries) shared(query string) string {
	if q.lock {
		query += q.dialect.ForShare
	}
	return q.rebind(query)
}

func (q *queries) alreadyExists(err error, entity, id string) error {
	var existsErr *storageErrors.AlreadyExistsError
	if errors.As(err, &existsErr) {
		existsErr.Entity = entity
		existsErr.ID = id
	}
	return err
}

func (q *queries) affected(ctx context.Context, res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return q.fail(ctx, err)
	}
	if n == 0 {
		return &storageErrors.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// users

const userColumns = `id, name, email, password_hash, role, wallet_balance, tasks_completed, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*modelledger.User, error) {
	var e modelstorage.UserStorageEntry
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &e.Role, &e.WalletBalance, &e.TasksCompleted, &e.CreatedAt); err != nil {
		return nil, err
	}
	return e.ToModel(), nil
}

func (q *queries) getUserBy(ctx context.Context, column, value string) (*modelledger.User, error) {
	row := q.q.QueryRowContext(ctx, q.single(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storageErrors.NotFoundError{Entity: "user", ID: value}
	}
	if err != nil {
		return nil, q.fail(ctx, err)
	}
	return user, nil
}

func (q *queries) GetUser(ctx context.Context, id string) (*modelledger.User, error) {
	return q.getUserBy(ctx, "id", id)
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*modelledger.User, error) {
	return q.getUserBy(ctx, "email", email)
}

func (q *queries) ListUsers(ctx context.Context, filter modelledger.UserFilter) ([]*modelledger.User, error) {
	w := &where{}
	if filter.Role != "" {
		w.add("role = ?", string(filter.Role))
	}
	rows, err := q.q.QueryContext(ctx, q.rebind(`SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY created_at, id`), w.args...)
	if err != nil {
		return nil, q.fail(ctx, err)
	}
	defer rows.Close()
	var out []*modelledger.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, &storageErrors.ScanningError{Err: err}
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, q.fail(ctx, err)
	}
	return out, nil
}

func (q *queries) InsertUser(ctx context.Context, user *modelledger.User) error {
	e := modelstorage.NewUserStorageEntry(user)
	_, err := q.q.ExecContext(ctx, q.rebind(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.Name, e.Email, e.PasswordHash, e.Role, e.WalletBalance, e.TasksCompleted, e.CreatedAt)
	if err != nil {
		return q.alreadyExists(q.fail(ctx, err), "user", user.Email)
	}
	return nil
}

func (q *queries) UpdateUser(ctx context.Context, user *modelledger.User) error {
	e := modelstorage.NewUserStorageEntry(user)
	res, err := q.q.ExecContext(ctx, q.rebind(`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, wallet_balance = ?, tasks_completed = ? WHERE id = ?`),
		e.Name, e.Email, e.PasswordHash, e.Role, e.WalletBalance, e.TasksCompleted, e.ID)
	if err != nil {
		return q.alreadyExists(q.fail(ctx, err), "user", user.Email)
	}
	return q.affected(ctx, res, "user", user.ID)
}

// tasks

const taskColumns = `id, title, description, category, requirements, reward, status, created_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*modelledger.Task, error) {
	var e modelstorage.TaskStorageEntry
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Requirements, &e.Reward, &e.Status, &e.CreatedAt); err != nil {
		return nil, err
	}
	return e.ToModel(), nil
}

func (q *queries) GetTask(ctx context.Context, id string) (*modelledger.Task, error) {
	row := q.q.QueryRowContext(ctx, q.shared(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storageErrors.NotFoundError{Entity: "task", ID: id}
	}
	if err != nil {
		return nil, q.fail(ctx, err)
	}
	return task, nil
}

func (q *queries) ListTasks(ctx context.Context, filter modelledger.TaskFilter) ([]*modelledger.Task, error) {
	w := &where{}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	rows, err := q.q.QueryContext(ctx, q.rebind(`SELECT `+taskColumns+` FROM tasks`+w.String()+` ORDER BY created_at, id`), w.args...)
	if err != nil {
		return nil, q.fail(ctx, err)
	}
	defer rows.Close()
	var out []*modelledger.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, &storageErrors.ScanningError{Err: err}
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, q.fail(ctx, err)
	}
	return out, nil
}

func (q *queries) InsertTask(ctx context.Context, task *modelledger.Task) error {
	e := modelstorage.NewTaskStorageEntry(task)
	_, err := q.q.ExecContext(ctx, q.rebind(`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.Title, e.Description, e.Category, e.Requirements, e.Reward, e.Status, e.CreatedAt)
	if err != nil {
		return q.alreadyExists(q.fail(ctx, err), "task", task.ID)
	}
	return nil
}

func (q *queries) UpdateTask(ctx context.Context, task *modelledger.Task) error {
	e := modelstorage.NewTaskStorageEntry(task)
	res, err := q.q.ExecContext(ctx, q.rebind(`UPDATE tasks SET title = ?, description = ?, category = ?, requirements = ?, reward = ?, status = ? WHERE id = ?`),
		e.Title, e.Description, e.Category, e.Requirements, e.Reward, e.Status, e.ID)
	if err != nil {
		return q.fail(ctx, err)
	}
	return q.affected(ctx, res, "task", task.ID)
}

// submissions

const submissionColumns = `id, user_id, task_id, task_title, proof, reward, status, admin_note, created_at, reviewed_at`

func scanSubmission(row interface{ Scan(...interface{}) error }) (*modelledger.Submission, error) {
	var e modelstorage.SubmissionStorageEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.TaskID, &e.TaskTitle, &e.Proof, &e.Reward, &e.Status, &e.AdminNote, &e.CreatedAt, &e.ReviewedAt); err != nil {
		return nil, err
	}
	return e.ToModel(), nil
}

func (q *queries) GetSubmission(ctx context.Context, id string) (*modelledger.Submission, error) {
	row := q.q.QueryRowContext(ctx, q.single(`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`), id)
	submission, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storageErrors.NotFoundError{Entity: "submission", ID: id}
	}
	if err != nil {
		return nil, q.fail(ctx, err)
	}
	return submission, nil
}

func (q *queries) ListSubmissions(ctx context.Context, filter modelledger.SubmissionFilter) ([]*modelledger.Submission, error) {
	w := &where{}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.TaskID != "" {
		w.add("task_id = ?", filter.TaskID)
	}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	rows, err := q.q.QueryContext(ctx, q.rebind(`SELECT `+submissionColumns+` FROM submissions`+w.String()+` ORDER BY created_at, id`), w.args...)
	if err != nil {
		return nil, q.fail(ctx, err)
	}
	defer rows.Close()
	var out []*modelledger.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, &storageErrors.ScanningError{Err: err}
		}
		out = append(out, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, q.fail(ctx, err)
	}
	return out, nil
}

func (q *queries) InsertSubmission(ctx context.Context, submission *modelledger.Submission) error {
	e := modelstorage.NewSubmissionStorageEntry(submission)
	_, err := q.q.ExecContext(ctx, q.rebind(`INSERT INTO submissions (`+submissionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.UserID, e.TaskID, e.TaskTitle, e.Proof, e.Reward, e.Status, e.AdminNote, e.CreatedAt, e.ReviewedAt)
	if err != nil {
		return q.alreadyExists(q.fail(ctx, err), "submission", submission.UserID+"/"+submission.TaskID)
	}
	return nil
}

func (q *queries) UpdateSubmission(ctx context.Context, submission *modelledger.Submission) error {
	e := modelstorage.NewSubmissionStorageEntry(submission)
	res, err := q.q.ExecContext(ctx, q.rebind(`UPDATE submissions SET status = ?, admin_note = ?, reviewed_at = ? WHERE id = ?`),
		e.Status, e.AdminNote, e.ReviewedAt, e.ID)
	if err != nil {
		return q.alreadyExists(q.fail(ctx, err), "submission", submission.UserID+"/"+submission.TaskID)
	}
	return q.affected(ctx, res, "submission", submission.ID)
}

// transactions

const transactionColumns = `id, user_id, type, amount, status, method, details, submission_id, created_at, finalized_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*modelledger.Transaction, error) {
	var e modelstorage.TransactionStorageEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.Status, &e.Method, &e.Details, &e.SubmissionID, &e.CreatedAt, &e.FinalizedAt); err != nil {
		return nil, err
	}
	return e.ToModel(), nil
}

func (q *queries) GetTransaction(ctx context.Context, id string) (*modelledger.Transaction, error) {
	row := q.q.QueryRowContext(ctx, q.single(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`), id)
	transaction, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storageErrors.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return nil, q.fail(ctx, err)
	}
	return transaction, nil
}

func (q *queries) ListTransactions(ctx context.Context, filter modelledger.TransactionFilter) ([]*modelledger.Transaction, error) {
	w := &where{}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		w.add("type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	rows, err := q.q.QueryContext(ctx, q.rebind(`SELECT `+transactionColumns+` FROM transactions`+w.String()+` ORDER BY created_at, id`), w.args...)
	if err != nil {
		return nil, q.fail(ctx, err)
	}
	defer rows.Close()
	var out []*modelledger.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, &storageErrors.ScanningError{Err: err}
		}
		out = append(out, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, q.fail(ctx, err)
	}
	return out, nil
}

func (q *queries) InsertTransaction(ctx context.Context, transaction *modelledger.Transaction) error {
	e := modelstorage.NewTransactionStorageEntry(transaction)
	_, err := q.q.ExecContext(ctx, q.rebind(`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.UserID, e.Type, e.Amount, e.Status, e.Method, e.Details, e.SubmissionID, e.CreatedAt, e.FinalizedAt)
	if err != nil {
		return q.alreadyExists(q.fail(ctx, err), "transaction", transaction.ID)
	}
	return nil
}

func (q *queries) UpdateTransaction(ctx context.Context, transaction *modelledger.Transaction) error {
	e := modelstorage.NewTransactionStorageEntry(transaction)
	res, err := q.q.ExecContext(ctx, q.rebind(`UPDATE transactions SET status = ?, finalized_at = ? WHERE id = ?`),
		e.Status, e.FinalizedAt, e.ID)
	if err != nil {
		return q.fail(ctx, err)
	}
	return q.affected(ctx, res, "transaction", transaction.ID)
}
