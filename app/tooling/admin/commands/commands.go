// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
)

// ErrHelp is returned when no known command was given.
var ErrHelp = errors.New("provide a command")

// Validate checks the stored chain, transaction data included. The chain
// was already validated when it was loaded, this reports the result.
func Validate(db *database.Database) error {
	chain := db.Chain()
	gen := db.Genesis()

	if err := database.ValidateChain(chain, gen); err != nil {
		return err
	}

	if err := database.ValidTransactionData(chain, gen); err != nil {
		return err
	}

	fmt.Printf("Chain is valid: length[%d] latest[%s]\n", len(chain), chain[len(chain)-1].Hash)

	return nil
}

// Balances prints the balance of every address known to the chain, or the
// balance of the address given as the second argument.
func Balances(args conf.Args, db *database.Database) error {
	chain := db.Chain()
	gen := db.Genesis()

	addresses := database.KnownAddresses(chain)
	if address := args.Num(1); address != "" {
		addresses = []string{address}
	}

	fmt.Printf("LatestBlockHash: %s\n\n", chain[len(chain)-1].Hash)

	for _, address := range addresses {
		fmt.Printf("Address: %s  Balance: %d\n", address, database.CalculateBalance(chain, address, gen.StartingBalance))
	}

	return nil
}

// Blocks prints every block of the chain.
func Blocks(db *database.Database) error {
	for height, block := range db.Chain() {
		ts := time.UnixMilli(block.Timestamp).UTC().Format(time.RFC3339Nano)
		fmt.Printf("Height: %d  Hash: %s  LastHash: %s  Time: %s  Difficulty: %d  Nonce: %d  Txs: %d\n",
			height, block.Hash, block.LastHash, ts, block.Difficulty, block.Nonce, len(block.Data))

		for _, tx := range block.Data {
			fmt.Printf("    %s\n", tx)
		}
	}

	return nil
}

// Migrate copies the chain into the target storage, replacing anything the
// target holds. The genesis block is never stored.
func Migrate(db *database.Database, target database.Storage) error {
	if err := target.Reset(); err != nil {
		return err
	}

	chain := db.Chain()
	for height := 1; height < len(chain); height++ {
		if err := target.Write(uint64(height), chain[height]); err != nil {
			return fmt.Errorf("writing block %d: %w", height, err)
		}
	}

	fmt.Printf("Migrated %d blocks\n", len(chain)-1)

	return nil
}
