// Command upload-assets uploads every image and descriptor in
// [UPLOAD_FLOOR, NFT_MINTING_MAX_ID) in windows of UPLOAD_WINDOW, rewriting
// each descriptor to reference its uploaded image. It never mints.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashgraph-online/nft-minter-go/pkg/app"
	"github.com/hashgraph-online/nft-minter-go/pkg/config"
)

func main() {
	if err := app.Run(app.NeedStore|app.NeedPinning, config.Config.ValidatePinning, run); err != nil {
		fmt.Fprintln(os.Stderr, "upload-assets:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App) error {
	p, err := a.Pipeline(false)
	if err != nil {
		return err
	}
	report, err := p.RunBatchedUpload(ctx)
	a.Logger.Info().
		Str("run_id", report.RunID).
		Int("windows", report.Windows).
		Int("contiguous", report.Contiguous).
		Msg("upload summary")
	if err != nil {
		if report.Done != nil {
			a.Logger.Warn().Ints("missing", report.Done.Missing(a.Config.UploadFloor, a.Config.TargetMax)).Msg("ids not uploaded")
		}
		return err
	}
	return nil
}
