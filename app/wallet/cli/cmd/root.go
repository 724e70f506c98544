// Package cmd contains the wallet commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/cryptochain/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

const keyExtension = ".ecdsa"

var (
	accountName string
	accountPath string
	nodeURL     string
)

var rootCmd = &cobra.Command{
	Use:           "wallet",
	Short:         "Manage a key pair and send value through a cryptochain node",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&accountName, "account", "a", "private", "Name of the private key file.")
	flags.StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	flags.StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

// Execute runs the wallet command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// keyPath returns the file holding the selected account's private key.
func keyPath() string {
	name := accountName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(accountPath, name)
}

// loadWallet loads the selected account's wallet.
func loadWallet() (*wallet.Wallet, error) {
	path := keyPath()

	w, err := wallet.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading account %q: %w", path, err)
	}

	return w, nil
}
