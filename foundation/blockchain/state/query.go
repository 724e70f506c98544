package state

import (
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/peer"
)

// QueryBalance derives the balance of the address from the current chain.
func (s *State) QueryBalance(address string) uint64 {
	return database.CalculateBalance(s.db.Chain(), address, s.genesis.StartingBalance)
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() int {
	return s.db.Length()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryStatus returns the status this node reports to its peers.
func (s *State) QueryStatus() peer.PeerStatus {
	chain := s.db.Chain()

	return peer.PeerStatus{
		LatestBlockHash: chain[len(chain)-1].Hash,
		Length:          len(chain),
		PoolCount:       s.mempool.Count(),
		KnownPeers:      s.RetrieveKnownPeers(),
	}
}
