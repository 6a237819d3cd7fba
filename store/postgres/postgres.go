/*
Package postgres implements storage.Store of neo-go on top of PostgreSQL.

Items are kept in a single table with binary key and value columns. Each
change set is applied in one SQL transaction, so a ledger operation is either
stored completely or not stored at all.
*/
package postgres

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"

	_ "github.com/lib/pq" // registers "postgres" driver
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
)

// DefaultTable is a name of the table used when none is specified.
const DefaultTable = "splitter_storage"

var tableNameRegexp = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Store is a storage.Store backed by PostgreSQL table.
type Store struct {
	db    *sql.DB
	table string

	mtx     sync.Mutex
	seekErr error
}

var _ storage.Store = (*Store)(nil)

// Open connects to the database and makes sure the table exists.
func Open(dsn, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}

	if !tableNameRegexp.MatchString(table) {
		return nil, fmt.Errorf("invalid table name '%s'", table)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s, err := New(db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// New returns Store working with the given database handle. Table must be a
// valid SQL identifier. It is created if missing.
func New(db *sql.DB, table string) (*Store, error) {
	if !tableNameRegexp.MatchString(table) {
		return nil, fmt.Errorf("invalid table name '%s'", table)
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + table + ` (
		key BYTEA PRIMARY KEY,
		value BYTEA NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	return &Store{db: db, table: table}, nil
}

// Get implements storage.Store.
func (s *Store) Get(key []byte) ([]byte, error) {
	var value []byte

	err := s.db.QueryRow(`SELECT value FROM `+s.table+` WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("select item: %w", err)
	}

	return value, nil
}

// PutChangeSet implements storage.Store. Nil values are deletions.
func (s *Store) PutChangeSet(puts map[string][]byte, stor map[string][]byte) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	upsert, err := tx.Prepare(`INSERT INTO ` + s.table + ` (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsert.Close()

	del, err := tx.Prepare(`DELETE FROM ` + s.table + ` WHERE key = $1`)
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer del.Close()

	for _, m := range []map[string][]byte{puts, stor} {
		for k, v := range m {
			if v == nil {
				_, err = del.Exec([]byte(k))
			} else {
				_, err = upsert.Exec([]byte(k), v)
			}
			if err != nil {
				return fmt.Errorf("write item: %w", err)
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type kv struct{ k, v []byte }

func (s *Store) selectRange(rng storage.SeekRange) ([]kv, error) {
	query := `SELECT key, value FROM ` + s.table + ` WHERE substring(key from 1 for $1) = $2`
	args := []any{len(rng.Prefix), rng.Prefix}

	if len(rng.Start) > 0 {
		from := append(bytes.Clone(rng.Prefix), rng.Start...)
		if rng.Backwards {
			query += ` AND key <= $3`
		} else {
			query += ` AND key >= $3`
		}
		args = append(args, from)
	}

	if rng.Backwards {
		query += ` ORDER BY key DESC`
	} else {
		query += ` ORDER BY key ASC`
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	var res []kv
	for rows.Next() {
		var item kv
		if err = rows.Scan(&item.k, &item.v); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		res = append(res, item)
	}

	return res, rows.Err()
}

// Seek implements storage.Store. If the database can not be read, Seek
// passes nothing to f and the failure is returned by Err.
func (s *Store) Seek(rng storage.SeekRange, f func(k, v []byte) bool) {
	items, err := s.selectRange(rng)

	s.mtx.Lock()
	s.seekErr = err
	s.mtx.Unlock()

	if err != nil {
		return
	}

	for i := range items {
		if !f(items[i].k, items[i].v) {
			return
		}
	}
}

// Err returns the error of the last Seek call, nil if it succeeded.
func (s *Store) Err() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.seekErr
}

// SeekGC implements storage.Store.
func (s *Store) SeekGC(rng storage.SeekRange, keep func(k, v []byte) bool) error {
	items, err := s.selectRange(rng)
	if err != nil {
		return err
	}

	drop := make(map[string][]byte)
	for i := range items {
		if !keep(items[i].k, items[i].v) {
			drop[string(items[i].k)] = nil
		}
	}

	if len(drop) == 0 {
		return nil
	}

	return s.PutChangeSet(drop, nil)
}

// Close implements storage.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
