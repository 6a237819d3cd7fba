package dump

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/splitter-contract/contracts/splitter/splitterconst"
)

// Creator dumps the splitter ledger. Output file format:
//
//	'<label>-<unix>-ledger.json': JSON ledger Summary
//	'<label>-<unix>-storage.csv': CSV of ledger storage
//
// Storage CSV records are 'key,value' with base64-encoded binary key-value.
//
// Use IterateDumps to access existing dumps.
type Creator struct {
	dumpStreams

	summary Summary

	storageItemsCSV *csv.Writer
}

// NewCreator returns Creator which dumps ledger into given directory. The
// dump is identified by specified ID. Resulting Creator should be closed when
// finished working with it.
//
// NewCreator fails if dump with provided ID already exists.
func NewCreator(dir string, id ID) (*Creator, error) {
	if id.Label == "" || strings.Contains(id.Label, sep) {
		return nil, fmt.Errorf("invalid dump label '%s'", id.Label)
	}

	var res Creator

	err := initDumpStreams(&res.dumpStreams, dir, id, false)
	if err != nil {
		return nil, err
	}

	res.storageItemsCSV = csv.NewWriter(res.dumpStreams.storageItems)

	return &res, nil
}

// SetSummary sets information about the dumped ledger.
func (x *Creator) SetSummary(s Summary) {
	x.summary = s
}

// Write saves given binary key-value into the dump as storage item.
func (x *Creator) Write(key, value []byte) error {
	err := x.storageItemsCSV.Write([]string{
		_encoding.EncodeToString(key),
		_encoding.EncodeToString(value),
	})
	if err != nil {
		return fmt.Errorf("write storage item as CSV data: %w", err)
	}

	return nil
}

// ledgerPrefixes are the first bytes of all ledger storage keys.
var ledgerPrefixes = []byte{
	splitterconst.ConfigKey,
	splitterconst.VersionKey,
	splitterconst.BalancePrefix,
}

// WriteStore saves all ledger items of the store into the dump. If the store
// reports read failures through Err() method, they are returned.
func (x *Creator) WriteStore(st storage.Store) error {
	var err error

	for _, p := range ledgerPrefixes {
		st.Seek(storage.SeekRange{Prefix: []byte{p}}, func(k, v []byte) bool {
			err = x.Write(k, v)
			return err == nil
		})
		if err != nil {
			return err
		}

		if es, ok := st.(interface{ Err() error }); ok {
			if err = es.Err(); err != nil {
				return fmt.Errorf("read storage items with prefix %#x: %w", p, err)
			}
		}
	}

	return nil
}

// Flush flushes accumulated dump to the file system.
func (x *Creator) Flush() error {
	jEnc := json.NewEncoder(x.dumpStreams.summary)
	jEnc.SetIndent("", " ")

	err := jEnc.Encode(x.summary)
	if err != nil {
		return fmt.Errorf("encode ledger summary to JSON: %w", err)
	}

	x.storageItemsCSV.Flush()

	err = x.storageItemsCSV.Error()
	if err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}

	return nil
}

// Close releases underlying resources of the Creator and makes it unusable.
func (x *Creator) Close() {
	x.close()
}
