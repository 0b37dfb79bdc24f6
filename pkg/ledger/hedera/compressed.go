package hedera

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	"github.com/hashgraph-online/nft-minter-go/pkg/merkle"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/mirror"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// treeState reads the shape of a commitment tree and the index the next leaf
// will receive.
func (c *Client) treeState(ctx context.Context, treeID string) (treeShape, uint64, error) {
	info, err := c.mirrorClient.GetTopicInfo(ctx, treeID)
	if err != nil {
		return treeShape{}, 0, mirrorError("read tree", err)
	}
	if info.Deleted {
		return treeShape{}, 0, minterr.Newf(minterr.KindNotFound, "read tree", "tree %s is deleted", treeID)
	}
	shape, err := parseTreeMemo(info.Memo)
	if err != nil {
		return treeShape{}, 0, minterr.New(minterr.KindInvalidConfig, "read tree", err)
	}
	latest, err := c.mirrorClient.GetLatestTopicMessage(ctx, treeID)
	if err != nil {
		return treeShape{}, 0, mirrorError("read tree", err)
	}
	var next uint64
	if latest != nil && latest.SequenceNumber > 0 {
		next = uint64(latest.SequenceNumber)
	}
	return shape, next, nil
}

func (c *Client) mintCompressed(ctx context.Context, request ledger.MintRequest) (ledger.MintResult, error) {
	topicID, err := hedera.TopicIDFromString(request.TreeID)
	if err != nil {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindInvalidConfig, "mint", request.ItemID, fmt.Errorf("invalid tree ID: %w", err))
	}

	shape, next, err := c.treeState(ctx, request.TreeID)
	if err != nil {
		return ledger.MintResult{}, minterr.WithItem(err, "mint", request.ItemID)
	}
	capacity := merkle.Capacity(shape.MaxDepth)
	if next >= capacity {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindCapacityExceeded, "mint", request.ItemID,
			fmt.Errorf("tree %s holds %d of %d leaves", request.TreeID, next, capacity))
	}

	message, err := merkle.EncodeLeaf(merkle.Leaf{
		Collection: request.CollectionID,
		Index:      next,
		Name:       request.Name,
		Owner:      c.operatorID.String(),
		RoyaltyBps: request.RoyaltyBps,
		Symbol:     request.Symbol,
		URI:        request.URI,
	})
	if err != nil {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindRejectedByLedger, "mint", request.ItemID, err)
	}

	transaction := hedera.NewTopicMessageSubmitTransaction().
		SetTopicID(topicID).
		SetMessage(message)
	receipt, transactionID, err := c.submit(ctx, "mint", func() (hedera.TransactionResponse, error) {
		return transaction.Execute(c.hederaClient)
	})
	if err != nil {
		return ledger.MintResult{}, minterr.WithItem(err, "mint", request.ItemID)
	}
	if receipt.TopicSequenceNumber == 0 {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindRejectedByLedger, "mint", request.ItemID,
			fmt.Errorf("receipt for %s has no sequence number", transactionID))
	}
	index := receipt.TopicSequenceNumber - 1
	if index != next {
		// Another writer appended between the capacity read and our submit;
		// the leaf body records the wrong index and would fail verification.
		return ledger.MintResult{}, minterr.ForItem(minterr.KindRejectedByLedger, "mint", request.ItemID,
			fmt.Errorf("leaf landed at index %d, expected %d", index, next))
	}

	c.logger.Debug().Int("id", request.ItemID).Str("tree", request.TreeID).Uint64("leaf", index).Msg("appended leaf")
	return ledger.MintResult{
		ItemID:     request.ItemID,
		TokenID:    formatLeafID(request.TreeID, index),
		Signature:  transactionID,
		Compressed: true,
		LeafIndex:  index,
	}, nil
}

// VerifyMembership checks through the mirror node that tokenID belongs to
// collectionID. Both token kinds carry their collection at mint time, so the
// check is read only and repeatable.
func (c *Client) VerifyMembership(ctx context.Context, tokenID string, collectionID string) error {
	ref, err := parseAssetID(tokenID)
	if err != nil {
		return minterr.New(minterr.KindRejectedByLedger, "verify", err)
	}
	if ref.Compressed {
		return c.verifyLeaf(ctx, ref, collectionID)
	}
	if ref.Entity != collectionID {
		return minterr.Newf(minterr.KindRejectedByLedger, "verify", "token %s is not part of collection %s", tokenID, collectionID)
	}

	return c.poll(ctx, "verify", func() (bool, error) {
		nft, err := c.mirrorClient.GetNFT(ctx, ref.Entity, ref.Serial)
		if errors.Is(err, mirror.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if nft.Deleted {
			return false, minterr.Newf(minterr.KindRejectedByLedger, "verify", "token %s is burned", tokenID)
		}
		return true, nil
	})
}

func (c *Client) verifyLeaf(ctx context.Context, ref assetRef, collectionID string) error {
	return c.poll(ctx, "verify", func() (bool, error) {
		message, err := c.mirrorClient.GetTopicMessageBySequence(ctx, ref.Entity, int64(ref.LeafIndex)+1)
		if err != nil {
			return false, err
		}
		if message == nil {
			return false, nil
		}
		payload, err := mirror.DecodeMessageData(*message)
		if err != nil {
			return false, minterr.New(minterr.KindRejectedByLedger, "verify", err)
		}
		leaf, _, err := merkle.DecodeLeaf(payload)
		if err != nil {
			return false, minterr.New(minterr.KindRejectedByLedger, "verify", err)
		}
		if leaf.Index != ref.LeafIndex {
			return false, minterr.Newf(minterr.KindRejectedByLedger, "verify", "leaf %d records index %d", ref.LeafIndex, leaf.Index)
		}
		if leaf.Collection != collectionID {
			return false, minterr.Newf(minterr.KindRejectedByLedger, "verify", "leaf %d belongs to collection %q, not %q", ref.LeafIndex, leaf.Collection, collectionID)
		}
		return true, nil
	})
}

// poll repeats check until it reports done, fails, or the attempts run out.
func (c *Client) poll(ctx context.Context, op string, check func() (bool, error)) error {
	for attempt := 1; attempt <= c.verifyAttempts; attempt++ {
		done, err := check()
		if err != nil {
			return mirrorError(op, err)
		}
		if done {
			return nil
		}
		if attempt == c.verifyAttempts {
			break
		}
		timer := time.NewTimer(c.verifyInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return minterr.New(minterr.KindTransientNetwork, op, ctx.Err())
		case <-timer.C:
		}
	}
	return minterr.Newf(minterr.KindTransientNetwork, op, "mirror node has not indexed the asset after %d attempts", c.verifyAttempts)
}

func mirrorError(op string, err error) error {
	if _, ok := minterr.KindOf(err); ok {
		return err
	}
	if errors.Is(err, mirror.ErrNotFound) {
		return minterr.New(minterr.KindNotFound, op, err)
	}
	return minterr.New(minterr.KindTransientNetwork, op, err)
}
