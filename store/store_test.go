package store

import (
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, cfg := range []Config{
		{},
		{Type: TypeInMemory},
		{Type: TypeBoltDB, Path: filepath.Join(dir, "ledger.db")},
		{Type: TypeLevelDB, Path: filepath.Join(dir, "leveldb")},
	} {
		s, err := Open(cfg)
		require.NoError(t, err, cfg.Type)

		cache := storage.NewMemCachedStore(s)
		cache.Put([]byte{'w', 1}, []byte{42})
		_, err = cache.PersistSync()
		require.NoError(t, err, cfg.Type)

		v, err := s.Get([]byte{'w', 1})
		require.NoError(t, err, cfg.Type)
		require.Equal(t, []byte{42}, v, cfg.Type)

		_, err = s.Get([]byte{'w', 2})
		require.ErrorIs(t, err, storage.ErrKeyNotFound, cfg.Type)

		require.NoError(t, s.Close(), cfg.Type)
	}

	for _, cfg := range []Config{
		{Type: "rocksdb"},
		{Type: TypeBoltDB},
		{Type: TypeLevelDB},
		{Type: TypePostgres},
	} {
		_, err := Open(cfg)
		require.Error(t, err, cfg.Type)
	}
}

func TestOpen_Reopen(t *testing.T) {
	cfg := Config{Type: TypeBoltDB, Path: filepath.Join(t.TempDir(), "ledger.db")}

	s, err := Open(cfg)
	require.NoError(t, err)

	cache := storage.NewMemCachedStore(s)
	cache.Put([]byte{'s'}, []byte("config"))
	_, err = cache.PersistSync()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	v, err := s.Get([]byte{'s'})
	require.NoError(t, err)
	require.Equal(t, []byte("config"), v)
}
