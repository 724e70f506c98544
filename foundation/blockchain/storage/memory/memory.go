// Package memory implements block storage held in a slice. Nothing survives
// a restart, which makes it the storage of choice for tests.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

// ErrNotFound is returned when no block is stored at the requested height.
var ErrNotFound = errors.New("block does not exist")

// Memory implements the database.Storage interface. Index i of the slice
// holds the block at height i+1.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs an empty memory storage.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// Write appends the block. The height must be the next one after the
// last stored block.
func (m *Memory) Write(height uint64, block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if next := uint64(len(m.blocks)) + 1; height != next {
		return fmt.Errorf("block is out of order, got height %d, exp %d", height, next)
	}

	m.blocks = append(m.blocks, block)

	return nil
}

// GetBlock returns the block stored at the height.
func (m *Memory) GetBlock(height uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if height == 0 || height > uint64(len(m.blocks)) {
		return database.Block{}, fmt.Errorf("height %d: %w", height, ErrNotFound)
	}

	return m.blocks[height-1], nil
}

// ForEach returns an iterator over the blocks stored at the time of the
// call. Blocks written afterwards are not seen.
func (m *Memory) ForEach() database.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make([]database.Block, len(m.blocks))
	copy(snapshot, m.blocks)

	return &iterator{blocks: snapshot}
}

// Reset drops every stored block.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil

	return nil
}

// =============================================================================

// iterator walks a snapshot of the stored blocks in height order.
type iterator struct {
	blocks []database.Block
	next   int
	eoc    bool
}

// Next returns the block at the next height. Reading past the last block
// marks the end of the chain and returns an error.
func (it *iterator) Next() (database.Block, error) {
	if it.next >= len(it.blocks) {
		it.eoc = true
		return database.Block{}, ErrNotFound
	}

	block := it.blocks[it.next]
	it.next++

	return block, nil
}

// Done reports whether the end of the chain was reached.
func (it *iterator) Done() bool {
	return it.eoc
}
