package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

// Set of errors returned when a mining request can't be served.
var (
	ErrMiningQueueFull = errors.New("too many mining requests pending")
	ErrShuttingDown    = errors.New("node is shutting down")
)

// MineTransactions gathers the valid pooled transactions, adds the reward
// for this node, and mines them into a new block. The mined transactions are
// removed from the pool and the new chain is shared with the known peers.
// A block holding only the reward is mined when the pool is empty.
//
// Pool updates wait until the block is mined, so a transaction updated
// under the same id can't be removed along with the version in the block.
func (s *State) MineTransactions(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineTransactions: MINING: started")
	defer s.evHandler("state: MineTransactions: MINING: completed")

	s.mu.Lock()
	defer s.mu.Unlock()

	valid, rejected := s.mempool.ValidTransactions()

	// The pool snapshot considered for this block. All of it leaves the pool
	// once the block is mined.
	snapshot := make([]string, 0, len(valid)+len(rejected))

	for _, r := range rejected {
		s.evHandler("state: MineTransactions: WARNING: dropping tx[%s]: %s", r.Tx, r.Err)
		snapshot = append(snapshot, r.Tx.ID)
	}

	// Peers check every input against the chain, so a transaction built on
	// a balance that has since changed would get the block rejected.
	chain := s.db.Chain()
	txs := make([]database.Tx, 0, len(valid)+1)
	for _, tx := range valid {
		snapshot = append(snapshot, tx.ID)

		balance := database.CalculateBalance(chain, tx.Input.Address, s.genesis.StartingBalance)
		if tx.Input.Amount != balance {
			s.evHandler("state: MineTransactions: WARNING: dropping stale tx[%s]: input[%d] balance[%d]", tx, tx.Input.Amount, balance)
			continue
		}

		txs = append(txs, tx)
	}

	txs = append(txs, database.NewRewardTx(s.minerWallet.Address(), s.genesis.MiningReward))

	s.evHandler("state: MineTransactions: MINING: perform POW: txs[%d]", len(txs))

	block, err := s.db.AddBlock(ctx, txs)
	if err != nil {
		return database.Block{}, err
	}

	s.mempool.Delete(snapshot...)

	s.evHandler("state: MineTransactions: MINING: block[%s] difficulty[%d] txs[%d]", block.Hash, block.Difficulty, len(block.Data))

	s.Worker.SignalShareChain()

	return block, nil
}

// RequestMining asks the worker to mine the pooled transactions and waits
// for the result.
func (s *State) RequestMining(ctx context.Context) (database.Block, error) {
	result := s.Worker.SignalStartMining()

	select {
	case r := <-result:
		return r.Block, r.Err
	case <-ctx.Done():
		return database.Block{}, ctx.Err()
	}
}
