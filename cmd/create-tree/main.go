// Command create-tree creates the commitment tree compressed mints go into
// and prints its id and leaf capacity.
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
		fmt.Fprintln(os.Stderr, "create-tree:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App) error {
	cfg := a.Config
	treeID, err := a.Ledger.CreateCommitmentTree(ctx, ledger.TreeSpec{
		MaxDepth:      cfg.TreeMaxDepth,
		MaxBufferSize: cfg.TreeMaxBufferSize,
		CanopyDepth:   cfg.TreeCanopyDepth,
		Public:        cfg.TreePublic,
	})
	if err != nil {
		return err
	}
	a.Logger.Info().Str("tree", treeID).Uint64("capacity", cfg.TreeCapacity()).Msg("commitment tree created")
	fmt.Printf("%s\ncapacity %d\n", treeID, cfg.TreeCapacity())
	return nil
}
