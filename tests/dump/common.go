package dump

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
)

// ID is a unique identifier of the dump prepared according to the model
// described in the current package.
type ID struct {
	// Label of the dump source (e.g. testnet, mainnet).
	Label string
	// Blockchain height at which the state was pulled.
	Block uint32
}

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatUint(uint64(x.Block), 10)
}

// decodeString decodes ID fields from the file name prefixed with
// hyphen-separated ID. Label may contain hyphens itself, so block number is
// the last number-like item before the file suffix.
func (x *ID) decodeString(s string) error {
	ss := strings.Split(s, sep)
	if len(ss) < 3 {
		return fmt.Errorf("expected '%s'-separated string with at least 3 items", sep)
	}

	blockInd := len(ss) - 2
	n, err := strconv.ParseUint(ss[blockInd], 10, 32)
	if err != nil {
		return fmt.Errorf("decode block number from '%s': %w", ss[blockInd], err)
	}

	x.Label = strings.Join(ss[:blockInd], sep)
	x.Block = uint32(n)

	return nil
}

// global encoding of binary values.
var _encoding = base64.StdEncoding

// dumpContractState is a JSON-encoded information about the dumped contract.
type dumpContractState struct {
	Name  string         `json:"name"`
	State state.Contract `json:"state"`
}

// dumpStreams groups data streams for contracts' states and storages.
type dumpStreams struct {
	contracts, storageItems io.ReadWriteCloser
}

// close closes all streams.
func (x *dumpStreams) close() {
	_ = x.storageItems.Close()
	_ = x.contracts.Close()
}

const (
	// word separator used in dump file naming
	sep = "-"
	// suffix of file with contracts' states
	statesFileSuffix = "contracts.json"
	// suffix of file with contracts' storage items
	storageFileSuffix = "storage.csv"
)

func dumpFilePath(dir string, id ID, suffix string) string {
	return filepath.Join(dir, id.String()+sep+suffix)
}

// initDumpStreams opens data streams for the dump files located in the
// specified directory. If read flag is set, streams are read-only. Otherwise,
// files must not exist, and streams are write only.
func initDumpStreams(d *dumpStreams, dir string, id ID, read bool) error {
	var (
		err           error
		pathStorage   = dumpFilePath(dir, id, storageFileSuffix)
		pathContracts = dumpFilePath(dir, id, statesFileSuffix)
		flag          = os.O_RDONLY
		perm          os.FileMode
	)

	if !read {
		for _, p := range []string{pathStorage, pathContracts} {
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

	d.contracts, err = os.OpenFile(pathContracts, flag, perm)
	if err != nil {
		_ = d.storageItems.Close()
		return fmt.Errorf("open file with contract states: %w", err)
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
