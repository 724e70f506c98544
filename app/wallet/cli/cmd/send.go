package cmd

import (
	"fmt"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/database"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/cryptochain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send value to a recipient",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet()
		if err != nil {
			return err
		}

		tx, err := send(nodeURL, w, to, amount)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", tx.ID, tx.OutputMap)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the recipient.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

// send builds the transaction against the node's chain and pool, signs it
// with the wallet, and submits it to the node. A payment the wallet already
// has waiting in the pool is extended instead of creating a second one.
func send(url string, w *wallet.Wallet, recipient string, amount uint64) (database.Tx, error) {
	var pool map[string]database.Tx
	if err := get(url+"/v1/transaction-pool-map", &pool); err != nil {
		return database.Tx{}, fmt.Errorf("fetching pool: %w", err)
	}

	var tx database.Tx
	var pending bool
	for _, ptx := range pool {
		if ptx.Input.Address == w.Address() {
			tx, pending = ptx, true
			break
		}
	}

	switch {
	case pending:
		if err := tx.Update(w, recipient, amount); err != nil {
			return database.Tx{}, err
		}

	default:
		var gen genesis.Genesis
		if err := get(url+"/v1/genesis", &gen); err != nil {
			return database.Tx{}, fmt.Errorf("fetching genesis: %w", err)
		}

		var chain []database.Block
		if err := get(url+"/v1/blocks", &chain); err != nil {
			return database.Tx{}, fmt.Errorf("fetching chain: %w", err)
		}

		var err error
		tx, err = w.CreateTransaction(recipient, amount, chain, gen.StartingBalance)
		if err != nil {
			return database.Tx{}, err
		}
	}

	if err := post(url+"/v1/tx/submit", tx); err != nil {
		return database.Tx{}, fmt.Errorf("submitting tx: %w", err)
	}

	return tx, nil
}
