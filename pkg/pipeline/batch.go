package pipeline

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashgraph-online/nft-minter-go/pkg/cursor"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BatchReport summarizes a batched upload. Contiguous is the highest id h
// such that every id in [floor, h] was uploaded, or floor-1 when none was.
type BatchReport struct {
	RunID      string
	Windows    int
	Done       *cursor.CompletionSet
	Contiguous int
}

// Windows splits [floor, targetMax) into consecutive ranges of width window.
func Windows(floor, targetMax, window int) [][]int {
	var windows [][]int
	for start := floor; start < targetMax; start += window {
		end := min(start+window, targetMax)
		ids := make([]int, 0, end-start)
		for id := start; id < end; id++ {
			ids = append(ids, id)
		}
		windows = append(windows, ids)
	}
	return windows
}

// RunBatchedUpload uploads images and descriptors window by window. Uploads
// within a window run concurrently; a window is fully drained before the
// next starts, and a failure in a window stops the run after it drains.
func (p *Pipeline) RunBatchedUpload(ctx context.Context) (BatchReport, error) {
	report := BatchReport{
		RunID:      uuid.NewString(),
		Done:       cursor.NewCompletionSet(p.store.Size()),
		Contiguous: p.floor - 1,
	}
	logger := p.logger.With().Str("run_id", report.RunID).Str("mode", "batch").Logger()
	started := time.Now()
	defer func() { p.metrics.run("batch", time.Since(started).Seconds()) }()

	windows := Windows(p.floor, p.targetMax, p.window)
	logger.Info().Int("floor", p.floor).Int("target_max", p.targetMax).Int("window", p.window).Int("windows", len(windows)).Msg("starting batched upload")

	var runErr error
	for _, ids := range windows {
		if err := ctx.Err(); err != nil {
			runErr = minterr.ForItem(minterr.KindTransientNetwork, "upload window", ids[0], err)
			break
		}
		report.Windows++
		if err := p.runWindow(ctx, logger, ids, report.Done); err != nil {
			runErr = err
			break
		}
		logger.Info().Int("from", ids[0]).Int("to", ids[len(ids)-1]).Msg("window uploaded")
	}

	if highest, ok := report.Done.Contiguous(p.floor); ok {
		report.Contiguous = min(highest, p.targetMax-1)
	}
	if runErr != nil {
		return report, runErr
	}
	logger.Info().Int("uploaded", report.Done.Count()).Dur("elapsed", time.Since(started)).Msg("batched upload complete")
	return report, nil
}

func (p *Pipeline) runWindow(ctx context.Context, logger zerolog.Logger, ids []int, done *cursor.CompletionSet) error {
	var group errgroup.Group
	group.SetLimit(p.window)
	for _, id := range ids {
		group.Go(func() error {
			if err := p.uploadWithRetry(ctx, logger, id); err != nil {
				return err
			}
			done.Mark(id)
			return nil
		})
	}
	return group.Wait()
}

func (p *Pipeline) uploadWithRetry(ctx context.Context, logger zerolog.Logger, id int) error {
	started := time.Now()
	item := Item{ID: id, State: StatePending}
	p.transition(logger, &item, StateUploading)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.retryInterval
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			p.metrics.retry()
			logger.Warn().Int("id", id).Int("attempt", attempt).Msg("retrying upload")
		}
		uri, err := p.uploadItem(ctx, id)
		if err != nil {
			if minterr.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		item.Address = uri
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.retries)), ctx))

	item.Elapsed = time.Since(started)
	if err != nil {
		item.Err = itemError(err, "upload item", id)
		p.transition(logger, &item, StateFailed)
		p.metrics.failure(item.Err)
		return item.Err
	}
	p.transition(logger, &item, StateUploaded)
	logger.Info().Int("id", id).Str("address", item.Address).Dur("elapsed", item.Elapsed).Msg("uploaded item")
	return nil
}

func (p *Pipeline) uploadItem(ctx context.Context, id int) (string, error) {
	metadata, err := p.store.ReadMetadata(ctx, id)
	if err != nil {
		return "", err
	}
	if err := p.publishImage(ctx, id, metadata); err != nil {
		return "", err
	}
	return p.publishDescriptor(ctx, id)
}
