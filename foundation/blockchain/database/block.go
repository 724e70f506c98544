package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together and linked to
// the block before it by hash.
type Block struct {
	Timestamp  int64  `json:"timestamp"`  // Milliseconds since epoch the block was mined.
	LastHash   string `json:"lastHash"`   // Hash of the previous block in the chain.
	Hash       string `json:"hash"`       // Hash of this block's fields.
	Data       []Tx   `json:"data"`       // Transactions recorded by this block.
	Nonce      uint64 `json:"nonce"`      // Value identified to solve the hash solution.
	Difficulty int    `json:"difficulty"` // Number of leading zero bits needed in the hash.
}

// GenesisBlock returns the fixed first block described by the genesis
// configuration.
func GenesisBlock(gen genesis.Genesis) Block {
	return Block{
		Timestamp:  gen.Timestamp,
		LastHash:   gen.LastHash,
		Hash:       gen.Hash,
		Data:       []Tx{},
		Nonce:      0,
		Difficulty: gen.Difficulty,
	}
}

// MineArgs represents the set of arguments required to mine a block.
type MineArgs struct {
	LastBlock Block
	Data      []Tx
	MineRate  int64
	EvHandler func(v string, args ...any)
}

// MineBlock constructs a new Block on top of the last block and performs the
// work to find a nonce that solves the proof of work puzzle. The search only
// stops early if the context is cancelled.
func MineBlock(ctx context.Context, args MineArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	data := args.Data
	if data == nil {
		data = []Tx{}
	}

	// The data and the previous hash never change during the search so they
	// are encoded once.
	dataJSON, err := signature.Canonical(data)
	if err != nil {
		return Block{}, fmt.Errorf("encoding block data: %w", err)
	}

	lastHashJSON, err := signature.Canonical(args.LastBlock.Hash)
	if err != nil {
		return Block{}, fmt.Errorf("encoding last hash: %w", err)
	}

	ev("database: MineBlock: MINING: started: lastHash[%s] txs[%d]", args.LastBlock.Hash, len(data))

	var nonce uint64
	for {
		if nonce > 0 && nonce%1_000_000 == 0 {
			ev("database: MineBlock: MINING: attempts[%d]", nonce)
		}

		// Did we get cancelled trying to solve the problem.
		if err := ctx.Err(); err != nil {
			ev("database: MineBlock: MINING: CANCELLED: attempts[%d]", nonce)
			return Block{}, err
		}

		timestamp := time.Now().UnixMilli()
		difficulty := AdjustDifficulty(args.LastBlock, timestamp, args.MineRate)

		hash := signature.HashCanonical(
			strconv.AppendInt(nil, timestamp, 10),
			strconv.AppendUint(nil, nonce, 10),
			strconv.AppendInt(nil, int64(difficulty), 10),
			lastHashJSON,
			dataJSON,
		)

		if signature.LeadingZeroBits(hash) >= difficulty {
			ev("database: MineBlock: MINING: SOLVED: hash[%s] difficulty[%d] attempts[%d]", hash, difficulty, nonce+1)

			b := Block{
				Timestamp:  timestamp,
				LastHash:   args.LastBlock.Hash,
				Hash:       hash,
				Data:       data,
				Nonce:      nonce,
				Difficulty: difficulty,
			}
			return b, nil
		}

		nonce++
	}
}

// BlockHash returns the hash for the specified block fields. Each field is
// encoded in canonical form and the encodings are hashed in a fixed order.
func BlockHash(timestamp int64, nonce uint64, difficulty int, lastHash string, data []Tx) (string, error) {
	if data == nil {
		data = []Tx{}
	}

	return signature.Hash(timestamp, nonce, difficulty, lastHash, data)
}

// ComputeHash recomputes the hash from the block's fields. An empty string
// is returned if the fields can't be encoded.
func (b Block) ComputeHash() string {
	hash, err := BlockHash(b.Timestamp, b.Nonce, b.Difficulty, b.LastHash, b.Data)
	if err != nil {
		return ""
	}

	return hash
}

// IsHashSolved checks the stored hash has at least difficulty leading
// zero bits.
func (b Block) IsHashSolved() bool {
	return signature.LeadingZeroBits(b.Hash) >= b.Difficulty
}

// AdjustDifficulty returns the difficulty for a block mined at timestamp on
// top of the original block. Blocks slower than the mine rate lower the
// difficulty and faster ones raise it. The result is never below one.
func AdjustDifficulty(original Block, timestamp int64, mineRate int64) int {
	difficulty := original.Difficulty

	switch {
	case timestamp-original.Timestamp > mineRate:
		difficulty--
	default:
		difficulty++
	}

	if difficulty < 1 {
		return 1
	}

	return difficulty
}
