// Command mint-collection creates the collection every item is minted into
// and prints its id. Store the id as COLLECTION_MINT_ADDRESS; running the
// command again creates a second collection.
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
	if err := app.Run(app.NeedLedger, config.Config.ValidateCollection, run); err != nil {
		fmt.Fprintln(os.Stderr, "mint-collection:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App) error {
	cfg := a.Config
	collectionID, err := a.Ledger.CreateCollection(ctx, ledger.CollectionSpec{
		Name:       cfg.CollectionName,
		Symbol:     cfg.Symbol,
		URI:        cfg.CollectionURI,
		RoyaltyBps: cfg.RoyaltyBps,
		MaxSupply:  int64(cfg.CollectionSize),
	})
	if err != nil {
		return err
	}
	a.Logger.Info().Str("collection", collectionID).Str("signer", a.Ledger.Address()).Msg("collection created")
	fmt.Println(collectionID)
	return nil
}
