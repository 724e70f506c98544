package main

import (
	"github.com/ardanlabs/cryptochain/app/wallet/cli/cmd"
)

func main() {
	cmd.Execute()
}
