// Package leveldb implements the ability to read and write blocks to an
// embedded LevelDB key/value store.
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// blockPrefix is the key prefix for every stored block. Heights are zero
// padded so keys sort in chain order.
const blockPrefix = "block:"

// LevelDB represents the storage implementation for reading and storing
// blocks in a LevelDB database. This implements the database.Storage
// interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates the LevelDB database at the path. A corrupted
// database is recovered.
func New(dbPath string) (*LevelDB, error) {
	opts := opt.Options{
		Filter: filter.NewBloomFilter(10),
	}

	db, err := leveldb.OpenFile(dbPath, &opts)
	if err != nil {
		if !ldberrors.IsCorrupted(err) {
			return nil, err
		}

		db, err = leveldb.RecoverFile(dbPath, nil)
		if err != nil {
			return nil, err
		}
	}

	return &LevelDB{db: db}, nil
}

// Close closes the database files.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write takes the specified block and stores it under the key for the
// block height.
func (l *LevelDB) Write(height uint64, block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return l.db.Put(key(height), data, nil)
}

// GetBlock locates and returns the contents of the specified block by height.
func (l *LevelDB) GetBlock(height uint64) (database.Block, error) {
	data, err := l.db.Get(key(height), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.Block{}, fmt.Errorf("block %d does not exist", height)
		}
		return database.Block{}, err
	}

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block height 1.
func (l *LevelDB) ForEach() database.Iterator {
	return &levelDBIterator{storage: l}
}

// Reset deletes every stored block in a single batch.
func (l *LevelDB) Reset() error {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {

		// The iterator reuses its key buffer.
		k := make([]byte, len(iter.Key()))
		copy(k, iter.Key())
		batch.Delete(k)
	}

	if err := iter.Error(); err != nil {
		return err
	}

	return l.db.Write(batch, nil)
}

func key(height uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", blockPrefix, height))
}

// =============================================================================

// levelDBIterator walks the blocks in height order. Blocks are read one at
// a time so a long chain isn't held open in a LevelDB iterator.
type levelDBIterator struct {
	storage *LevelDB
	current uint64
	eoc     bool
}

// Next retrieves the next block from the database.
func (li *levelDBIterator) Next() (database.Block, error) {
	if li.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	li.current++
	data, err := li.storage.db.Get(key(li.current), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			li.eoc = true
		}
		return database.Block{}, err
	}

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// Done returns the end of chain value.
func (li *levelDBIterator) Done() bool {
	return li.eoc
}
