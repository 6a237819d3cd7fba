package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
)

// IterateDumps iterates over all ledger dumps collected by the Creator in
// the specified directory, and passes ID and Reader of each dump into f.
// Files not following dump naming are skipped.
func IterateDumps(dir string, f func(ID, *Reader)) error {
	var id ID
	var r Reader
	var streams dumpStreams

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if e != nil {
			if errors.Is(e, fs.ErrNotExist) {
				return nil
			}
			return e
		}

		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()

		if !strings.HasSuffix(name, sep+summaryFileSuffix) {
			return nil
		}

		err := id.decodeString(name)
		if err != nil {
			return fmt.Errorf("decode dump ID from file name '%s': %w", name, err)
		}

		err = initDumpStreams(&streams, dir, id, true)
		if err != nil {
			return fmt.Errorf("init dump streams ('%s'): %w", name, err)
		}

		err = r.fromDumpStreams(streams.summary, streams.storageItems)
		streams.close()
		if err != nil {
			return fmt.Errorf("init dump reader ('%s'): %w", name, err)
		}

		f(id, &r)

		return nil
	})
}

type kv struct{ k, v []byte }

// Reader reads ledger collected in the superior dump.
type Reader struct {
	summary Summary
	items   []kv
}

func (x *Reader) fromDumpStreams(rSummary, rStorageItems io.Reader) error {
	x.summary = Summary{}

	err := json.NewDecoder(rSummary).Decode(&x.summary)
	if err != nil {
		return fmt.Errorf("decode ledger summary from JSON: %w", err)
	}

	var rec []string
	var _kv kv

	_csv := csv.NewReader(rStorageItems)
	_csv.FieldsPerRecord = 2
	_csv.ReuseRecord = true

	x.items = x.items[:0]

	for {
		rec, err = _csv.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read next CSV record: %w", err)
		}

		// out-of-range safety guaranteed by csv settings
		_kv.k, err = _encoding.DecodeString(rec[0])
		if err != nil {
			return fmt.Errorf("decode storage item key: %w", err)
		}

		_kv.v, err = _encoding.DecodeString(rec[1])
		if err != nil {
			return fmt.Errorf("decode storage item value: %w", err)
		}

		x.items = append(x.items, _kv)
	}
}

// Summary returns information about the dumped ledger.
func (x *Reader) Summary() Summary {
	return x.summary
}

// IterateStorage passes all storage items from the superior dump into f.
func (x *Reader) IterateStorage(f func(key, value []byte)) {
	for i := range x.items {
		f(x.items[i].k, x.items[i].v)
	}
}

// Restore puts all storage items from the superior dump into the store as a
// single change set.
func (x *Reader) Restore(st storage.Store) error {
	puts := make(map[string][]byte, len(x.items))

	x.IterateStorage(func(key, value []byte) {
		puts[string(key)] = value
	})

	err := st.PutChangeSet(puts, nil)
	if err != nil {
		return fmt.Errorf("put storage items: %w", err)
	}

	return nil
}
