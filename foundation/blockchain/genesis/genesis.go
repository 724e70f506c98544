// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RewardAddress is the sentinel input address carried by mining reward
// transactions.
const RewardAddress = "*authorized-reward*"

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`
	ChainID         uint16    `json:"chain_id"`         // The chain id represents an unique id for this running instance.
	Timestamp       int64     `json:"timestamp"`        // Fixed timestamp of the genesis block in milliseconds.
	LastHash        string    `json:"last_hash"`        // Sentinel previous hash of the genesis block.
	Hash            string    `json:"hash"`             // Fixed hash of the genesis block.
	Difficulty      int       `json:"difficulty"`       // Starting number of leading zero bits required.
	MineRate        int64     `json:"mine_rate"`        // Target time between blocks in milliseconds.
	StartingBalance uint64    `json:"starting_balance"` // Balance of an address that never sent a transaction.
	MiningReward    uint64    `json:"mining_reward"`    // Reward for mining a block.
}

// Default returns the chain constants used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:         1,
		Timestamp:       1,
		LastHash:        "-----",
		Hash:            "hash-one",
		Difficulty:      3,
		MineRate:        1000,
		StartingBalance: 1000,
		MiningReward:    50,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. An empty path returns the
// default constants.
func Load(path string) (Genesis, error) {
	if path == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	if err := genesis.validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %q: %w", path, err)
	}

	return genesis, nil
}

func (g Genesis) validate() error {
	switch {
	case g.Difficulty < 1:
		return fmt.Errorf("difficulty must be at least 1, got %d", g.Difficulty)
	case g.MineRate <= 0:
		return fmt.Errorf("mine rate must be positive, got %d", g.MineRate)
	case g.Hash == "":
		return fmt.Errorf("hash is required")
	}

	return nil
}
