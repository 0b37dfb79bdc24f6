// Command mint-cnfts mints compressed NFTs into MERKLE_TREE_ADDRESS under
// COLLECTION_MINT_ADDRESS, resuming after the last recorded id.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashgraph-online/nft-minter-go/pkg/app"
	"github.com/hashgraph-online/nft-minter-go/pkg/config"
)

const compressed = true

func main() {
	validate := func(cfg config.Config) error { return cfg.ValidateMint(compressed) }
	if err := app.Run(app.NeedAll, validate, run); err != nil {
		fmt.Fprintln(os.Stderr, "mint-cnfts:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App) error {
	p, err := a.Pipeline(compressed)
	if err != nil {
		return err
	}
	report, err := p.RunSequential(ctx)
	a.Logger.Info().
		Str("run_id", report.RunID).
		Int("from", report.Start).
		Int("next", report.Next).
		Int("minted", len(report.Results)).
		Msg("mint summary")
	return err
}
