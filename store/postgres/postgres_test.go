package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/stretchr/testify/require"
)

func TestOpen_InvalidTable(t *testing.T) {
	for _, table := range []string{
		"Balances",
		"1table",
		"kv; DROP TABLE users",
		"kv-store",
	} {
		_, err := Open("postgres://localhost/splitter?sslmode=disable", table)
		require.Error(t, err, table)
	}
}

func TestStore_SeekError(t *testing.T) {
	db, err := sql.Open("postgres", "postgres://localhost/splitter?sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s := &Store{db: db, table: DefaultTable}
	require.NoError(t, s.Err())

	s.Seek(storage.SeekRange{Prefix: []byte{'w'}}, func(_, _ []byte) bool {
		t.Fatal("no items expected from unavailable database")
		return false
	})
	require.Error(t, s.Err())
}

// newTestStore connects to the database referenced by SPLITTER_TEST_POSTGRES_DSN
// and skips the test if the variable is not set.
func newTestStore(t *testing.T) *Store {
	dsn := os.Getenv("SPLITTER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SPLITTER_TEST_POSTGRES_DSN is not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	const table = "splitter_storage_test"

	_, err = db.Exec(`DROP TABLE IF EXISTS ` + table)
	require.NoError(t, err)

	s, err := New(db, table)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(`DROP TABLE IF EXISTS ` + table)
		_ = s.Close()
	})

	return s
}

func TestStore_Integration(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get([]byte{'w', 1})
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	cache := storage.NewMemCachedStore(s)
	cache.Put([]byte{'s'}, []byte("config"))
	cache.Put([]byte{'w', 1}, []byte{10})
	cache.Put([]byte{'w', 2}, []byte{20})
	cache.Put([]byte{'w', 3}, []byte{30})
	_, err = cache.PersistSync()
	require.NoError(t, err)

	v, err := s.Get([]byte{'w', 2})
	require.NoError(t, err)
	require.Equal(t, []byte{20}, v)

	var keys [][]byte
	s.Seek(storage.SeekRange{Prefix: []byte{'w'}}, func(k, _ []byte) bool {
		keys = append(keys, k)
		return true
	})
	require.Equal(t, [][]byte{{'w', 1}, {'w', 2}, {'w', 3}}, keys)
	require.NoError(t, s.Err())

	keys = keys[:0]
	s.Seek(storage.SeekRange{Prefix: []byte{'w'}, Start: []byte{2}, Backwards: true}, func(k, _ []byte) bool {
		keys = append(keys, k)
		return true
	})
	require.Equal(t, [][]byte{{'w', 2}, {'w', 1}}, keys)

	err = s.SeekGC(storage.SeekRange{Prefix: []byte{'w'}}, func(k, _ []byte) bool {
		return k[1] != 3
	})
	require.NoError(t, err)

	_, err = s.Get([]byte{'w', 3})
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, s.PutChangeSet(map[string][]byte{"s": nil}, nil))
	_, err = s.Get([]byte{'s'})
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}
