package database

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
)

// Set of errors describing why a candidate chain was rejected.
var (
	ErrChainTooShort   = errors.New("received chain is not longer than the current chain")
	ErrInvalidChain    = errors.New("received chain is invalid")
	ErrInvalidChainTxs = errors.New("received chain has invalid transaction data")
)

// ValidateChain checks the chain starts with the genesis block and every
// block after it links to its predecessor, carries the hash of its own
// fields, solves its proof of work, and was retargeted from its
// predecessor's difficulty.
func ValidateChain(chain []Block, gen genesis.Genesis) error {
	if len(chain) == 0 {
		return errors.New("chain is empty")
	}

	if !isGenesisBlock(chain[0], GenesisBlock(gen)) {
		return errors.New("first block is not the genesis block")
	}

	for i := 1; i < len(chain); i++ {
		prev := chain[i-1]
		block := chain[i]

		if block.LastHash != prev.Hash {
			return fmt.Errorf("block %d: last hash %q does not match previous hash %q", i, block.LastHash, prev.Hash)
		}

		if block.Difficulty < 1 {
			return fmt.Errorf("block %d: difficulty %d is below one", i, block.Difficulty)
		}

		if jump := block.Difficulty - prev.Difficulty; jump > 1 || jump < -1 {
			return fmt.Errorf("block %d: difficulty jumped from %d to %d", i, prev.Difficulty, block.Difficulty)
		}

		if exp := AdjustDifficulty(prev, block.Timestamp, gen.MineRate); block.Difficulty != exp {
			return fmt.Errorf("block %d: difficulty %d, exp %d", i, block.Difficulty, exp)
		}

		if hash := block.ComputeHash(); block.Hash != hash {
			return fmt.Errorf("block %d: hash %q does not match fields, exp %q", i, block.Hash, hash)
		}

		if !block.IsHashSolved() {
			return fmt.Errorf("block %d: hash %q does not solve difficulty %d", i, block.Hash, block.Difficulty)
		}
	}

	return nil
}

// IsValidChain reports whether ValidateChain accepts the chain.
func IsValidChain(chain []Block, gen genesis.Genesis) bool {
	return ValidateChain(chain, gen) == nil
}

// ValidTransactionData checks the transactions recorded in every block of
// the chain. A block may hold at most one reward paying exactly the mining
// reward. Every other transaction must be valid, must spend the balance the
// sender held on the chain before that block, and no sender may author more
// than one transaction in the same block.
func ValidTransactionData(chain []Block, gen genesis.Genesis) error {
	for i := 1; i < len(chain); i++ {
		var rewards int
		senders := make(map[string]struct{})

		for _, tx := range chain[i].Data {
			if tx.IsReward() {
				rewards++
				if rewards > 1 {
					return fmt.Errorf("block %d: more than one mining reward", i)
				}

				if len(tx.OutputMap) != 1 {
					return fmt.Errorf("block %d: reward %s must pay a single address", i, tx.ID)
				}

				for _, value := range tx.OutputMap {
					if value != gen.MiningReward {
						return fmt.Errorf("block %d: reward %s pays %d, exp %d", i, tx.ID, value, gen.MiningReward)
					}
				}
				continue
			}

			if err := tx.Validate(); err != nil {
				return fmt.Errorf("block %d: tx %s: %w", i, tx.ID, err)
			}

			balance := CalculateBalance(chain[:i], tx.Input.Address, gen.StartingBalance)
			if tx.Input.Amount != balance {
				return fmt.Errorf("block %d: tx %s: input amount %d, exp balance %d", i, tx.ID, tx.Input.Amount, balance)
			}

			if _, exists := senders[tx.Input.Address]; exists {
				return fmt.Errorf("block %d: sender %s appears more than once", i, tx.Input.Address)
			}
			senders[tx.Input.Address] = struct{}{}
		}
	}

	return nil
}

func isGenesisBlock(b Block, gen Block) bool {
	return b.Timestamp == gen.Timestamp &&
		b.LastHash == gen.LastHash &&
		b.Hash == gen.Hash &&
		b.Nonce == gen.Nonce &&
		b.Difficulty == gen.Difficulty &&
		len(b.Data) == 0
}
