// Command check-wallet prints the address of the configured signer and, when
// the ledger reports one, its balance.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashgraph-online/nft-minter-go/pkg/app"
	"github.com/hashgraph-online/nft-minter-go/pkg/config"
	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
)

func main() {
	if err := app.Run(app.NeedLedger, config.Config.ValidateSigner, run); err != nil {
		fmt.Fprintln(os.Stderr, "check-wallet:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App) error {
	fmt.Println(a.Ledger.Address())
	wallet, ok := a.Ledger.(ledger.Wallet)
	if !ok {
		return nil
	}
	balance, err := wallet.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Println(balance)
	return nil
}
