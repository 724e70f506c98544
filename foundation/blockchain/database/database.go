// Package database handles all the lower level support for maintaining the
// blockchain in memory and in storage.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
)

// ErrChainChanged is returned when the tip of the chain moved while a block
// was being mined on top of it.
var ErrChainChanged = errors.New("chain changed while mining")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. Heights
// start at 1, the genesis block is never stored.
type Storage interface {
	Write(height uint64, block Block) error
	GetBlock(height uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the node's single canonical chain.
type Database struct {
	mu     sync.RWMutex
	mineMu sync.Mutex

	genesis genesis.Genesis
	blocks  []Block
	storage Storage

	evHandler func(v string, args ...any)
}

// New constructs a new database and reads the blockchain from storage. The
// stored chain must be valid on top of the genesis block.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		genesis:   gen,
		blocks:    []Block{GenesisBlock(gen)},
		storage:   storage,
		evHandler: ev,
	}

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		db.blocks = append(db.blocks, block)
	}

	if err := ValidateChain(db.blocks, gen); err != nil {
		return nil, fmt.Errorf("stored chain: %w", err)
	}

	if err := ValidTransactionData(db.blocks, gen); err != nil {
		return nil, fmt.Errorf("stored chain: %w", err)
	}

	ev("database: New: loaded chain: length[%d]", len(db.blocks))

	return &db, nil
}

// Close closes the open blocks storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Genesis returns the genesis configuration the chain was built on.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// Chain returns a copy of the current chain.
func (db *Database) Chain() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	chain := make([]Block, len(db.blocks))
	copy(chain, db.blocks)

	return chain
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// Length returns the number of blocks in the chain, genesis included.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// AddBlock mines a new block holding the data on top of the current tip and
// appends it. Only one block is mined at a time. If the chain is replaced
// while mining, the block is discarded and ErrChainChanged is returned.
func (db *Database) AddBlock(ctx context.Context, data []Tx) (Block, error) {
	db.mineMu.Lock()
	defer db.mineMu.Unlock()

	lastBlock := db.LatestBlock()

	block, err := MineBlock(ctx, MineArgs{
		LastBlock: lastBlock,
		Data:      data,
		MineRate:  db.genesis.MineRate,
		EvHandler: db.evHandler,
	})
	if err != nil {
		return Block{}, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	height := len(db.blocks)
	if db.blocks[height-1].Hash != lastBlock.Hash {
		return Block{}, ErrChainChanged
	}

	if err := db.storage.Write(uint64(height), block); err != nil {
		return Block{}, fmt.Errorf("write block %d: %w", height, err)
	}

	db.blocks = append(db.blocks, block)

	db.evHandler("database: AddBlock: height[%d] hash[%s]", height, block.Hash)

	return block, nil
}

// ReplaceChain adopts the candidate chain if it is longer than the current
// chain and valid. With validateTxs set the transaction data of every block
// is checked as well. The current chain is unchanged when an error is
// returned.
func (db *Database) ReplaceChain(candidate []Block, validateTxs bool) error {
	if len(candidate) <= db.Length() {
		return ErrChainTooShort
	}

	if err := ValidateChain(candidate, db.genesis); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChain, err)
	}

	if validateTxs {
		if err := ValidTransactionData(candidate, db.genesis); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChainTxs, err)
		}
	}

	chain := make([]Block, len(candidate))
	copy(chain, candidate)

	db.mu.Lock()
	defer db.mu.Unlock()

	// The chain may have grown while the candidate was validated.
	if len(chain) <= len(db.blocks) {
		return ErrChainTooShort
	}

	if err := db.rewrite(chain); err != nil {
		if rerr := db.rewrite(db.blocks); rerr != nil {
			db.evHandler("database: ReplaceChain: ERROR: restoring storage: %s", rerr)
		}
		return fmt.Errorf("persist chain: %w", err)
	}

	db.blocks = chain

	db.evHandler("database: ReplaceChain: replaced: length[%d] hash[%s]", len(chain), chain[len(chain)-1].Hash)

	return nil
}

// rewrite resets storage and writes every block after genesis.
func (db *Database) rewrite(chain []Block) error {
	if err := db.storage.Reset(); err != nil {
		return err
	}

	for height := 1; height < len(chain); height++ {
		if err := db.storage.Write(uint64(height), chain[height]); err != nil {
			return err
		}
	}

	return nil
}
