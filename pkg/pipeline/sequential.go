package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashgraph-online/nft-minter-go/pkg/cursor"
	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/pinning"
	"github.com/rs/zerolog"
)

// Report summarizes a sequential run. Results are in id order; Next is the
// id a following run would start from.
type Report struct {
	RunID   string
	Start   int
	Next    int
	Results []ledger.MintResult
}

// RunSequential mints every id from the cursor up to the target, one at a
// time. The first failure ends the run; the cursor is only advanced after an
// item is fully minted and verified.
func (p *Pipeline) RunSequential(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	if p.ledger == nil || p.cursor == nil {
		return report, minterr.Newf(minterr.KindInvalidConfig, "run sequential", "ledger and cursor are required")
	}
	logger := p.logger.With().Str("run_id", report.RunID).Str("mode", "sequential").Logger()

	next, err := cursor.Next(ctx, p.cursor)
	if err != nil {
		return report, err
	}
	report.Start = next
	report.Next = next

	started := time.Now()
	defer func() { p.metrics.run("sequential", time.Since(started).Seconds()) }()
	logger.Info().Int("from", next).Int("target_max", p.targetMax).Msg("starting mint run")

	for id := next; id < p.targetMax; id++ {
		if err := ctx.Err(); err != nil {
			return report, minterr.ForItem(minterr.KindTransientNetwork, "mint item", id, err)
		}
		result, err := p.mintItem(ctx, logger, id)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, result)
		report.Next = id + 1
	}

	logger.Info().Int("minted", len(report.Results)).Dur("elapsed", time.Since(started)).Msg("mint run complete")
	return report, nil
}

func (p *Pipeline) mintItem(ctx context.Context, logger zerolog.Logger, id int) (ledger.MintResult, error) {
	started := time.Now()
	item := Item{ID: id, State: StatePending}
	fail := func(err error) (ledger.MintResult, error) {
		err = itemError(err, "mint item", id)
		item.Err = err
		item.Elapsed = time.Since(started)
		p.transition(logger, &item, StateFailed)
		p.metrics.failure(err)
		return ledger.MintResult{}, err
	}

	p.transition(logger, &item, StateUploading)
	uri, err := p.uploadForMint(ctx, id)
	if err != nil {
		return fail(err)
	}
	item.Address = uri
	p.transition(logger, &item, StateUploaded)

	p.transition(logger, &item, StateMinting)
	request := ledger.MintRequest{
		ItemID:       id,
		Name:         p.itemName(id),
		Symbol:       p.symbol,
		URI:          uri,
		RoyaltyBps:   p.royaltyBps,
		CollectionID: p.collectionID,
		TreeID:       p.treeID,
	}
	result, err := bounded(ctx, p.callTimeout, "mint", func(ctx context.Context) (ledger.MintResult, error) {
		return p.ledger.Mint(ctx, request)
	})
	if err != nil {
		return fail(err)
	}
	item.TokenID = result.TokenID
	p.metrics.mint(result.Compressed)
	p.transition(logger, &item, StateMinted)

	if p.verify && !result.Verified {
		_, err := bounded(ctx, p.callTimeout, "verify", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.ledger.VerifyMembership(ctx, result.TokenID, p.collectionID)
		})
		if err != nil {
			return fail(err)
		}
		result.Verified = true
		p.transition(logger, &item, StateVerified)
	}

	if err := p.cursor.Advance(ctx, id); err != nil {
		return fail(err)
	}
	p.metrics.recorded(id)
	item.Elapsed = time.Since(started)
	p.transition(logger, &item, StateRecorded)
	logger.Info().
		Int("id", id).
		Str("address", uri).
		Str("token", result.TokenID).
		Dur("elapsed", item.Elapsed).
		Msg("minted item")
	return result, nil
}

// uploadForMint makes sure the image of id is uploaded and referenced, then
// uploads the descriptor.
func (p *Pipeline) uploadForMint(ctx context.Context, id int) (string, error) {
	metadata, err := p.store.ReadMetadata(ctx, id)
	if err != nil {
		return "", err
	}
	if !pinning.IsRemote(metadata.Image()) {
		if err := p.publishImage(ctx, id, metadata); err != nil {
			return "", err
		}
	}
	return p.publishDescriptor(ctx, id)
}
