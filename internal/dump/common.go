package dump

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ID is a unique identifier of the dump.
type ID struct {
	// Label of the dump source (e.g. production, staging). Must not contain
	// hyphens.
	Label string
	// Moment at which the state was pulled.
	Time time.Time
}

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatInt(x.Time.Unix(), 10)
}

// decodes ID fields from the hyphen-separated string.
func (x *ID) decodeString(s string) error {
	ss := strings.Split(s, sep)
	if len(ss) < 2 {
		return fmt.Errorf("expected '%s'-separated string with at least 2 items", sep)
	}

	n, err := strconv.ParseInt(ss[1], 10, 64)
	if err != nil {
		return fmt.Errorf("decode timestamp from '%s': %w", ss[1], err)
	}

	x.Label = ss[0]
	x.Time = time.Unix(n, 0)

	return nil
}

// global encoding of binary values.
var _encoding = base64.StdEncoding

// Summary is a JSON-encoded information about the dumped ledger.
type Summary struct {
	// Address of the ledger.
	Contract string `json:"contract"`
	// Name and version recorded at initialization.
	Name    string `json:"name"`
	Version int    `json:"version"`
	// Configuration of the ledger.
	Administrator string `json:"administrator"`
	ApprovedAsset string `json:"approvedAsset"`
}

// dumpStreams groups data streams for ledger summary and storage.
type dumpStreams struct {
	summary, storageItems io.ReadWriteCloser
}

// close closes all streams.
func (x *dumpStreams) close() {
	_ = x.storageItems.Close()
	_ = x.summary.Close()
}

const (
	// word separator used in dump file naming
	sep = "-"
	// suffix of file with ledger summary
	summaryFileSuffix = "ledger.json"
	// suffix of file with storage items
	storageFileSuffix = "storage.csv"
)

// initDumpStreams opens data streams for the dump files located in the
// specified directory. If read flag is set, streams are read-only. Otherwise,
// files must not exist, and streams are write only.
func initDumpStreams(d *dumpStreams, dir string, id ID, read bool) error {
	var err error

	pathStorage := filepath.Join(dir, strings.Join([]string{id.String(), storageFileSuffix}, sep))
	pathSummary := filepath.Join(dir, strings.Join([]string{id.String(), summaryFileSuffix}, sep))

	var flag int
	var perm os.FileMode

	if read {
		flag = os.O_RDONLY
	} else {
		for _, p := range []string{pathStorage, pathSummary} {
			if err = checkFileNotExists(p); err != nil {
				return err
			}
		}

		flag = os.O_CREATE | os.O_WRONLY
		perm = 0600
	}

	d.storageItems, err = os.OpenFile(pathStorage, flag, perm)
	if err != nil {
		return fmt.Errorf("open file with storage items: %w", err)
	}

	d.summary, err = os.OpenFile(pathSummary, flag, perm)
	if err != nil {
		_ = d.storageItems.Close()
		return fmt.Errorf("open file with ledger summary: %w", err)
	}

	return nil
}

// checkFileNotExists checks that there is no file at the specified path.
func checkFileNotExists(p string) error {
	_, err := os.Stat(p)
	if !os.IsNotExist(err) {
		if err == nil {
			err = os.ErrExist
		}
		return fmt.Errorf("file '%s' absence check failed: %w", p, err)
	}
	return nil
}
