package insqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/logger"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/storagetest"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Ledger {
		cfg := &config.StorageConfig{SQLitePath: filepath.Join(t.TempDir(), "nested", "earnhub.db")}
		st, err := InitStorage(context.Background(), cfg, logger.InitLog())
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestInitStorage_Reopen(t *testing.T) {
	cfg := &config.StorageConfig{SQLitePath: filepath.Join(t.TempDir(), "earnhub.db")}
	st, err := InitStorage(context.Background(), cfg, logger.InitLog())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// migrations are idempotent
	st, err = InitStorage(context.Background(), cfg, logger.InitLog())
	require.NoError(t, err)
	require.NoError(t, st.Close())
}
