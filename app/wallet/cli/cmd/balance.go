package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// balanceInfo is what the node reports for an address.
type balanceInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
}

var balanceOf string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of the account or of any address",
	Args:  cobra.NoArgs,
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceOf, "of", "o", "", "Address or known name to look up instead of the account.")
}

func balanceRun(cmd *cobra.Command, args []string) error {
	address := balanceOf
	if address == "" {
		w, err := loadWallet()
		if err != nil {
			return err
		}
		address = w.Address()
	}

	var info balanceInfo
	if err := get(fmt.Sprintf("%s/v1/balance/%s", nodeURL, url.PathEscape(address)), &info); err != nil {
		return err
	}

	who := info.Address
	if info.Name != "" {
		who = fmt.Sprintf("%s (%s)", info.Name, info.Address)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", who, info.Balance)

	return nil
}
