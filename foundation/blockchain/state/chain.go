package state

import (
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

// ReplaceChain adopts the chain received from a peer if it is longer than
// this node's chain and valid, transaction data included. A rejected chain
// leaves the node untouched and is only logged. When the chain is adopted,
// mining in progress is cancelled and pooled transactions recorded on the
// new chain are removed.
func (s *State) ReplaceChain(chain []database.Block) bool {
	s.evHandler("state: ReplaceChain: started: length[%d]", len(chain))
	defer s.evHandler("state: ReplaceChain: completed")

	if err := s.db.ReplaceChain(chain, true); err != nil {
		s.evHandler("state: ReplaceChain: rejected: %s", err)
		return false
	}

	// The block being mined now sits on an old tip. The mining G will not
	// finish until done is called, so the pool is cleaned first.
	done := s.Worker.SignalCancelMining()
	defer done()

	removed := s.mempool.ClearBlockchainTransactions(chain)
	s.evHandler("state: ReplaceChain: adopted: length[%d] removed-txs[%d]", len(chain), removed)

	return true
}
