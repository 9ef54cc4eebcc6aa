package sqlbase

import (
	"context"
	"errors"
	"testing"

	"github.com/danilovkiri/dk-go-earnhub/internal/logger"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/stretchr/testify/assert"
)

func unavailable(err error) error {
	return &storageErrors.UnavailableError{Err: err}
}

func TestDollarRebind(t *testing.T) {
	assert.Equal(t, "UPDATE users SET a = $1 WHERE id = $2", DollarRebind("UPDATE users SET a = ? WHERE id = ?"))
	assert.Equal(t, "SELECT 1", QuestionRebind("SELECT 1"))
}

func TestRowLocks(t *testing.T) {
	dialect := Dialect{Rebind: QuestionRebind, ForUpdate: " FOR UPDATE", ForShare: " FOR SHARE"}
	const query = "SELECT id FROM tasks WHERE id = ?"

	plain := &queries{dialect: dialect}
	assert.Equal(t, query, plain.single(query))
	assert.Equal(t, query, plain.shared(query))

	locked := &queries{dialect: dialect, lock: true}
	assert.Equal(t, query+" FOR UPDATE", locked.single(query))
	assert.Equal(t, query+" FOR SHARE", locked.shared(query))
}

func TestCommitFailed(t *testing.T) {
	lost := errors.New("connection reset by peer")
	tests := []struct {
		name     string
		classify func(error) error
		safe     func(error) bool
		want     interface{}
	}{
		{"unavailable without proof", unavailable, nil, &storageErrors.CommitUnknownError{}},
		{"unavailable possibly sent", unavailable, func(error) bool { return false }, &storageErrors.CommitUnknownError{}},
		{"unavailable never sent", unavailable, func(error) bool { return true }, &storageErrors.UnavailableError{}},
		{"conflict", func(err error) error { return &storageErrors.ConflictError{Err: err} }, nil, &storageErrors.ConflictError{}},
		{"execution", nil, nil, &storageErrors.ExecutionError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, Dialect{Name: "test", Rebind: QuestionRebind, Classify: tt.classify, CommitSafeToRetry: tt.safe}, logger.InitLog())
			err := s.commitFailed(context.Background(), lost)
			assert.IsType(t, tt.want, err)
			assert.True(t, errors.Is(err, lost))
		})
	}
}

func TestCommitUnknownIsNotUnavailable(t *testing.T) {
	s := New(nil, Dialect{Name: "test", Rebind: QuestionRebind, Classify: unavailable}, logger.InitLog())
	err := s.commitFailed(context.Background(), errors.New("broken pipe"))
	var unavailableError *storageErrors.UnavailableError
	assert.False(t, errors.As(err, &unavailableError))
}
