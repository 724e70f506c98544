// Package selector provides different transaction ordering algorithms.
package selector

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFIFO      = "fifo"
	StrategyTimestamp = "timestamp"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFIFO:      fifoSelect,
	StrategyTimestamp: timestampSelect,
}

// Entry is a pooled transaction with the sequence number it arrived with.
type Entry struct {
	Seq uint64
	Tx  database.Tx
}

// Func defines a function that takes the pooled transactions and returns
// them in the order the strategy wants them considered. When two
// transactions from the same sender are pooled, the one ordered first wins.
type Func func(entries []Entry) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// fifoSelect orders transactions by arrival in the pool.
var fifoSelect = func(entries []Entry) []database.Tx {
	sort.Sort(bySeq(entries))
	return txs(entries)
}

// timestampSelect orders transactions by the time the sender signed them,
// oldest first. Ties are broken by id so every node picks the same order.
var timestampSelect = func(entries []Entry) []database.Tx {
	sort.Sort(byTimestamp(entries))
	return txs(entries)
}

func txs(entries []Entry) []database.Tx {
	list := make([]database.Tx, len(entries))
	for i, e := range entries {
		list[i] = e.Tx
	}
	return list
}

// =============================================================================

// bySeq provides sorting support by the arrival sequence.
type bySeq []Entry

// Len returns the number of transactions in the list.
func (bs bySeq) Len() int {
	return len(bs)
}

// Less helps to sort the list by sequence in ascending order.
func (bs bySeq) Less(i, j int) bool {
	return bs[i].Seq < bs[j].Seq
}

// Swap moves transactions in the order of the sequence value.
func (bs bySeq) Swap(i, j int) {
	bs[i], bs[j] = bs[j], bs[i]
}

// =============================================================================

// byTimestamp provides sorting support by the input timestamp.
type byTimestamp []Entry

// Len returns the number of transactions in the list.
func (bt byTimestamp) Len() int {
	return len(bt)
}

// Less helps to sort the list by timestamp in ascending order, then by id.
func (bt byTimestamp) Less(i, j int) bool {
	ti, tj := bt[i].Tx.Input.Timestamp, bt[j].Tx.Input.Timestamp
	if ti != tj {
		return ti < tj
	}
	return bt[i].Tx.ID < bt[j].Tx.ID
}

// Swap moves transactions in the order of the timestamp value.
func (bt byTimestamp) Swap(i, j int) {
	bt[i], bt[j] = bt[j], bt[i]
}
