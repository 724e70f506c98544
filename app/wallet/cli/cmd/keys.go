package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <hex-key>",
	Short: "Store an existing private key as the account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := importKey(keyPath(), args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), w.Address())
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the account's private key in hex form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), exportKey(w))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

// importKey saves the hex encoded key at the path. An existing key file is
// never replaced.
func importKey(path string, hexKey string) (*wallet.Wallet, error) {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("key file %q already exists", path)
	}

	w, err := wallet.FromHex(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, err
	}

	if err := w.Save(path); err != nil {
		return nil, err
	}

	return w, nil
}

// exportKey returns the wallet's private key in the form importKey reads.
func exportKey(w *wallet.Wallet) string {
	return hex.EncodeToString(crypto.FromECDSA(w.PrivateKey()))
}
