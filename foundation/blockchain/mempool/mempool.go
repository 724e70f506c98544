// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/mempool/selector"
)

// Rejected describes a pooled transaction left out of the valid set.
type Rejected struct {
	Tx  database.Tx
	Err error
}

// Mempool represents a cache of pending transactions keyed by transaction id.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]selector.Entry
	seq      uint64
	selectFn selector.Func
}

// New constructs a new mempool using the default sort strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyFIFO)
}

// NewWithStrategy constructs a new mempool with specified sort strategy. An
// empty strategy selects fifo.
func NewWithStrategy(strategy string) (*Mempool, error) {
	if strategy == "" {
		strategy = selector.StrategyFIFO
	}

	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]selector.Entry),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// SetTransaction adds or replaces a transaction in the pool. A replaced
// transaction keeps its original place in arrival order.
func (mp *Mempool) SetTransaction(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	e, exists := mp.pool[tx.ID]
	if !exists {
		mp.seq++
		e.Seq = mp.seq
	}
	e.Tx = tx.Clone()
	mp.pool[tx.ID] = e

	return len(mp.pool)
}

// ExistingTransaction returns the pending transaction authored by the
// address, if any.
func (mp *Mempool) ExistingTransaction(address string) (database.Tx, bool) {
	for _, tx := range mp.Transactions() {
		if tx.Input.Address == address {
			return tx, true
		}
	}

	return database.Tx{}, false
}

// Transactions returns a copy of every pooled transaction in the order of
// the configured strategy.
func (mp *Mempool) Transactions() []database.Tx {
	mp.mu.RLock()
	entries := make([]selector.Entry, 0, len(mp.pool))
	for _, e := range mp.pool {
		e.Tx = e.Tx.Clone()
		entries = append(entries, e)
	}
	mp.mu.RUnlock()

	return mp.selectFn(entries)
}

// ValidTransactions returns the pooled transactions that pass validation in
// strategy order. Only the first transaction seen from each sender is kept.
// Everything left out is returned with the reason.
func (mp *Mempool) ValidTransactions() ([]database.Tx, []Rejected) {
	var valid []database.Tx
	var rejected []Rejected
	senders := make(map[string]struct{})

	for _, tx := range mp.Transactions() {
		if err := tx.Validate(); err != nil {
			rejected = append(rejected, Rejected{Tx: tx, Err: err})
			continue
		}

		if _, exists := senders[tx.Input.Address]; exists {
			rejected = append(rejected, Rejected{Tx: tx, Err: fmt.Errorf("duplicate pending transaction from %s", tx.Input.Address)})
			continue
		}
		senders[tx.Input.Address] = struct{}{}

		valid = append(valid, tx)
	}

	return valid, rejected
}

// TransactionMap returns a copy of the pool keyed by transaction id.
func (mp *Mempool) TransactionMap() map[string]database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	m := make(map[string]database.Tx, len(mp.pool))
	for id, e := range mp.pool {
		m[id] = e.Tx.Clone()
	}

	return m
}

// SetMap replaces the whole pool with the specified transactions. The
// transactions are trusted and not validated. Arrival order is assigned by
// input timestamp then id.
func (mp *Mempool) SetMap(txs map[string]database.Tx) {
	list := make([]database.Tx, 0, len(txs))
	for id, tx := range txs {
		tx.ID = id
		list = append(list, tx.Clone())
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Input.Timestamp != list[j].Input.Timestamp {
			return list[i].Input.Timestamp < list[j].Input.Timestamp
		}
		return list[i].ID < list[j].ID
	})

	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]selector.Entry, len(list))
	for _, tx := range list {
		mp.seq++
		mp.pool[tx.ID] = selector.Entry{Seq: mp.seq, Tx: tx}
	}
}

// Delete removes the specified transactions from the pool.
func (mp *Mempool) Delete(ids ...string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, id := range ids {
		delete(mp.pool, id)
	}
}

// Clear removes all the transactions from the pool.
func (mp *Mempool) Clear() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]selector.Entry)
}

// ClearBlockchainTransactions removes every pooled transaction already
// recorded on the chain.
func (mp *Mempool) ClearBlockchainTransactions(chain []database.Block) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var removed int
	for _, block := range chain {
		for _, tx := range block.Data {
			if _, exists := mp.pool[tx.ID]; exists {
				delete(mp.pool, tx.ID)
				removed++
			}
		}
	}

	return removed
}
