package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/processor/v1/processor"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/secretary/v1/secretary"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/servicetest"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1/wallet"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/workflow/v1/workflow"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `
[[users]]
name = "Admin User"
email = "admin@demo.com"
password = "admin123"
role = "admin"

[[users]]
name = "Demo User"
email = "user@demo.com"
password = "password123"
opening_balance = "250.50"

[[tasks]]
title = "Watch Product Video"
reward = "15.00"
`

func writeSeed(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	f, err := Load(writeSeed(t, doc))
	require.NoError(t, err)
	assert.Len(t, f.Users, 2)
	assert.Len(t, f.Tasks, 1)

	_, err = Load(writeSeed(t, "[[users]]\nnickname = \"x\"\n"))
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_ShippedFile(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "configs", "seed.toml"))
	require.NoError(t, err)
	assert.NotEmpty(t, f.Users)
	assert.NotEmpty(t, f.Tasks)
}

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	ledger := inmemory.InitStorage(servicetest.Logger())
	sec, err := secretary.NewSecretaryService(&config.SecretConfig{SecretKey: "k", TokenTTL: time.Minute})
	require.NoError(t, err)
	w, err := wallet.InitService(ledger, servicetest.LedgerConfig(), servicetest.Logger())
	require.NoError(t, err)
	wf, err := workflow.InitService(ledger, w, servicetest.Logger())
	require.NoError(t, err)
	c, err := catalog.InitService(ledger, servicetest.Logger())
	require.NoError(t, err)
	proc, err := processor.InitService(ledger, sec, c, wf, w, servicetest.Logger())
	require.NoError(t, err)

	f, err := Load(writeSeed(t, doc))
	require.NoError(t, err)
	s := NewSeeder(proc, c, w, servicetest.Logger())

	result, err := s.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, &Result{UsersCreated: 2, TasksCreated: 1}, result)

	result, err = s.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, &Result{}, result)

	admin, err := ledger.GetUserByEmail(ctx, "admin@demo.com")
	require.NoError(t, err)
	assert.Equal(t, modelledger.RoleAdmin, admin.Role)
	demo, err := ledger.GetUserByEmail(ctx, "user@demo.com")
	require.NoError(t, err)
	assert.True(t, demo.WalletBalance.Equal(servicetest.Amount("250.50")))

	report, err := w.Audit(ctx, demo.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}
