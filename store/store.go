/*
Package store opens durable key-value stores holding the ledger state.

All stores implement storage.Store of neo-go, so the host can put
storage.MemCachedStore in front of them and commit each operation as a single
change set.
*/
package store

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/splitter-contract/store/postgres"
)

// Supported store types.
const (
	TypeInMemory = "inmemory"
	TypeBoltDB   = "boltdb"
	TypeLevelDB  = "leveldb"
	TypePostgres = "postgres"
)

// Config describes the store to open.
type Config struct {
	// One of the Type* constants.
	Type string `yaml:"type"`
	// File or directory path, used by BoltDB and LevelDB.
	Path string `yaml:"path"`
	// Connection string, used by Postgres.
	DSN string `yaml:"dsn"`
	// Postgres table name, defaults to postgres.DefaultTable.
	Table string `yaml:"table"`
}

// Open opens the store described by cfg. Resulting store should be closed
// when finished working with it.
func Open(cfg Config) (storage.Store, error) {
	switch cfg.Type {
	case "", TypeInMemory:
		return storage.NewMemoryStore(), nil
	case TypeBoltDB:
		if cfg.Path == "" {
			return nil, fmt.Errorf("missing path of %s store", cfg.Type)
		}
		return storage.NewStore(dbconfig.DBConfiguration{
			Type:          cfg.Type,
			BoltDBOptions: dbconfig.BoltDBOptions{FilePath: cfg.Path},
		})
	case TypeLevelDB:
		if cfg.Path == "" {
			return nil, fmt.Errorf("missing path of %s store", cfg.Type)
		}
		return storage.NewStore(dbconfig.DBConfiguration{
			Type:           cfg.Type,
			LevelDBOptions: dbconfig.LevelDBOptions{DataDirectoryPath: cfg.Path},
		})
	case TypePostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("missing DSN of %s store", cfg.Type)
		}
		s, err := postgres.Open(cfg.DSN, cfg.Table)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store type '%s'", cfg.Type)
	}
}
