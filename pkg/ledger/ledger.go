package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Client submits minting transactions to a ledger.
type Client interface {
	// Address is the signer's public address.
	Address() string
	CreateCollection(ctx context.Context, spec CollectionSpec) (string, error)
	CreateCommitmentTree(ctx context.Context, spec TreeSpec) (string, error)
	// Mint creates one token. A non-empty TreeID selects a compressed mint.
	Mint(ctx context.Context, request MintRequest) (MintResult, error)
	// VerifyMembership confirms tokenID as a member of collectionID. It is a
	// no-op when membership is already verified.
	VerifyMembership(ctx context.Context, tokenID string, collectionID string) error
}

type CollectionSpec struct {
	Name       string
	Symbol     string
	URI        string
	RoyaltyBps uint16
	MaxSupply  int64
}

type TreeSpec struct {
	MaxDepth      uint32
	MaxBufferSize uint32
	CanopyDepth   uint32
	Public        bool
}

type MintRequest struct {
	ItemID       int
	Name         string
	Symbol       string
	URI          string
	RoyaltyBps   uint16
	CollectionID string
	TreeID       string
}

func (r MintRequest) Compressed() bool {
	return strings.TrimSpace(r.TreeID) != ""
}

func (r MintRequest) Validate() error {
	if strings.TrimSpace(r.CollectionID) == "" {
		return fmt.Errorf("collection ID is required")
	}
	if strings.TrimSpace(r.URI) == "" {
		return fmt.Errorf("metadata URI is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.RoyaltyBps > 10000 {
		return fmt.Errorf("royalty must not exceed 10000 basis points")
	}
	return nil
}

type MintResult struct {
	ItemID     int
	TokenID    string
	Signature  string
	Compressed bool
	LeafIndex  uint64
	// Verified is set when the mint itself established collection membership,
	// so no separate VerifyMembership call is needed.
	Verified bool
}

// Balance is a native-currency balance in the ledger's smallest unit.
type Balance struct {
	Amount   uint64
	Unit     string
	Decimals int
}

// Wallet is implemented by clients that can report the signer's balance.
type Wallet interface {
	Balance(ctx context.Context) (Balance, error)
}

func (b Balance) String() string {
	if b.Decimals <= 0 {
		return fmt.Sprintf("%d %s", b.Amount, b.Unit)
	}
	scale := uint64(1)
	for i := 0; i < b.Decimals; i++ {
		scale *= 10
	}
	return fmt.Sprintf("%d.%0*d %s", b.Amount/scale, b.Decimals, b.Amount%scale, b.Unit)
}
