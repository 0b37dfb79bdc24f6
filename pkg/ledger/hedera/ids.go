package hedera

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	"github.com/hashgraph-online/nft-minter-go/pkg/merkle"
)

const treeMemoPrefix = "nftminter-tree:1:"

type treeShape struct {
	MaxDepth      uint32
	MaxBufferSize uint32
	CanopyDepth   uint32
}

func formatTreeMemo(spec ledger.TreeSpec) (string, error) {
	if err := merkle.ValidateShape(spec.MaxDepth, spec.MaxBufferSize, spec.CanopyDepth); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d:%d:%d", treeMemoPrefix, spec.MaxDepth, spec.MaxBufferSize, spec.CanopyDepth), nil
}

func parseTreeMemo(memo string) (treeShape, error) {
	trimmed := strings.TrimSpace(memo)
	if !strings.HasPrefix(trimmed, treeMemoPrefix) {
		return treeShape{}, fmt.Errorf("topic memo %q is not a commitment tree", memo)
	}
	parts := strings.Split(strings.TrimPrefix(trimmed, treeMemoPrefix), ":")
	if len(parts) != 3 {
		return treeShape{}, fmt.Errorf("topic memo %q has %d shape fields, want 3", memo, len(parts))
	}
	values := make([]uint32, 3)
	for index, part := range parts {
		parsed, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return treeShape{}, fmt.Errorf("topic memo %q: invalid shape field %q", memo, part)
		}
		values[index] = uint32(parsed)
	}
	shape := treeShape{MaxDepth: values[0], MaxBufferSize: values[1], CanopyDepth: values[2]}
	if err := merkle.ValidateShape(shape.MaxDepth, shape.MaxBufferSize, shape.CanopyDepth); err != nil {
		return treeShape{}, err
	}
	return shape, nil
}

// formatSerialID names one serial of an HTS token as "<token>/<serial>".
func formatSerialID(tokenID string, serial int64) string {
	return fmt.Sprintf("%s/%d", tokenID, serial)
}

// formatLeafID names one compressed mint as "<topic>/leaf/<index>".
func formatLeafID(topicID string, index uint64) string {
	return fmt.Sprintf("%s/leaf/%d", topicID, index)
}

type assetRef struct {
	Entity     string
	Serial     int64
	LeafIndex  uint64
	Compressed bool
}

func parseAssetID(id string) (assetRef, error) {
	parts := strings.Split(strings.TrimSpace(id), "/")
	switch {
	case len(parts) == 2:
		serial, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || serial <= 0 || parts[0] == "" {
			return assetRef{}, fmt.Errorf("invalid token ID %q", id)
		}
		return assetRef{Entity: parts[0], Serial: serial}, nil
	case len(parts) == 3 && parts[1] == "leaf":
		index, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil || parts[0] == "" {
			return assetRef{}, fmt.Errorf("invalid leaf ID %q", id)
		}
		return assetRef{Entity: parts[0], LeafIndex: index, Compressed: true}, nil
	default:
		return assetRef{}, fmt.Errorf("invalid asset ID %q", id)
	}
}
