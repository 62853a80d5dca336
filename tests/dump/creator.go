package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
)

// Creator writes new dump of the contracts. For each dump ID two files are
// created in the target directory:
//
//	'<label>-<block>-contracts.json': JSON array of named contract states
//	'<label>-<block>-storage.csv': storage items of all added contracts
//
// Each CSV record is 'name,key,value' with base64-encoded key and value.
//
// Dumps are read back with IterateDumps.
type Creator struct {
	dumpStreams

	contracts []dumpContractState
	names     map[string]struct{}
	flushed   bool

	storageItemsCSV *csv.Writer
}

// NewCreator opens new dump with the given ID in dir. The dump must not exist
// yet. Creator must be closed after use.
func NewCreator(dir string, id ID) (*Creator, error) {
	res := &Creator{
		names: make(map[string]struct{}),
	}

	err := initDumpStreams(&res.dumpStreams, dir, id, false)
	if err != nil {
		return nil, err
	}

	res.storageItemsCSV = csv.NewWriter(res.dumpStreams.storageItems)

	return res, nil
}

// AddContract registers state of the named contract and returns StorageWriter
// for its storage items. Names must be unique within the dump. Nothing is
// persisted until Flush.
func (x *Creator) AddContract(name string, st state.Contract) (*StorageWriter, error) {
	if name == "" {
		return nil, errors.New("empty contract name")
	}
	if _, ok := x.names[name]; ok {
		return nil, fmt.Errorf("contract '%s' is already added", name)
	}

	x.names[name] = struct{}{}
	x.contracts = append(x.contracts, dumpContractState{
		Name:  name,
		State: st,
	})

	return &StorageWriter{
		name: name,
		csv:  x.storageItemsCSV,
	}, nil
}

// Flush writes contract states and buffered storage items to the files. It
// can be called only once.
func (x *Creator) Flush() error {
	if x.flushed {
		return errors.New("dump is already flushed")
	}

	jEnc := json.NewEncoder(x.dumpStreams.contracts)
	jEnc.SetIndent("", " ")

	err := jEnc.Encode(x.contracts)
	if err != nil {
		return fmt.Errorf("encode contract states to JSON: %w", err)
	}

	x.storageItemsCSV.Flush()

	err = x.storageItemsCSV.Error()
	if err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}

	x.flushed = true

	return nil
}

// Close releases files of the Creator.
func (x *Creator) Close() {
	x.close()
}

// StorageWriter appends storage items of one contract to the dump.
type StorageWriter struct {
	name  string
	csv   *csv.Writer
	count int
}

// Write appends key-value item to the contract storage dump.
func (x *StorageWriter) Write(key, value []byte) error {
	err := x.csv.Write([]string{
		x.name,
		_encoding.EncodeToString(key),
		_encoding.EncodeToString(value),
	})
	if err != nil {
		return fmt.Errorf("write storage item of '%s' as CSV data: %w", x.name, err)
	}

	x.count++

	return nil
}

// Count returns number of items written so far.
func (x *StorageWriter) Count() int {
	return x.count
}
