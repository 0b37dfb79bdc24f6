package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	"github.com/hashgraph-online/nft-minter-go/pkg/merkle"
	"github.com/near/borsh-go"
)

// supportedBuffers lists the buffer sizes the account compression program
// accepts for each depth.
var supportedBuffers = map[uint32][]uint32{
	3:  {8},
	5:  {8},
	6:  {16},
	7:  {16},
	8:  {16},
	9:  {16},
	10: {32},
	11: {32},
	12: {32},
	13: {32},
	14: {64, 256, 1024, 2048},
	15: {64},
	16: {64},
	17: {64},
	18: {64},
	19: {64},
	20: {64, 256, 1024, 2048},
	24: {64, 256, 512, 1024, 2048},
	26: {512, 1024, 2048},
	30: {512, 1024, 2048},
}

func validateTreeShape(spec ledger.TreeSpec) error {
	if err := merkle.ValidateShape(spec.MaxDepth, spec.MaxBufferSize, spec.CanopyDepth); err != nil {
		return err
	}
	for _, buffer := range supportedBuffers[spec.MaxDepth] {
		if buffer == spec.MaxBufferSize {
			return nil
		}
	}
	return fmt.Errorf("depth %d with buffer %d is not a supported tree shape", spec.MaxDepth, spec.MaxBufferSize)
}

const (
	treeHeaderSize = 56
	// sequence number, active index, buffer size
	treeCounterSize = 24
)

// treeAccountSize is the byte size of a concurrent merkle tree account.
func treeAccountSize(maxDepth, maxBufferSize, canopyDepth uint32) uint64 {
	depth := uint64(maxDepth)
	changeLog := 40 + 32*depth
	rightmostProof := 32*depth + 40
	size := uint64(treeHeaderSize) + treeCounterSize + uint64(maxBufferSize)*changeLog + rightmostProof
	if canopyDepth > 0 {
		size += ((uint64(1) << (canopyDepth + 1)) - 2) * 32
	}
	return size
}

type treeConfig struct {
	TotalMintCapacity uint64
	NumMinted         uint64
}

// parseTreeConfig reads the counters from Bubblegum's TreeConfig account:
// discriminator, creator and delegate precede them.
func parseTreeConfig(data []byte) (treeConfig, error) {
	if len(data) < 88 {
		return treeConfig{}, fmt.Errorf("tree config account is %d bytes, want at least 88", len(data))
	}
	return treeConfig{
		TotalMintCapacity: binary.LittleEndian.Uint64(data[72:80]),
		NumMinted:         binary.LittleEndian.Uint64(data[80:88]),
	}, nil
}

type createTreeArgs struct {
	MaxDepth      uint32
	MaxBufferSize uint32
	Public        *bool
}

func createTreeInstruction(payer, tree common.PublicKey, spec ledger.TreeSpec) (types.Instruction, error) {
	authority, err := treeAuthority(tree)
	if err != nil {
		return types.Instruction{}, err
	}
	public := spec.Public
	args, err := borsh.Serialize(createTreeArgs{
		MaxDepth:      spec.MaxDepth,
		MaxBufferSize: spec.MaxBufferSize,
		Public:        &public,
	})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("failed to encode create_tree args: %w", err)
	}

	return types.Instruction{
		ProgramID: bubblegumProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: authority, IsWritable: true},
			{PubKey: tree, IsWritable: true},
			{PubKey: payer, IsSigner: true, IsWritable: true},
			{PubKey: payer, IsSigner: true},
			{PubKey: noopProgramID},
			{PubKey: compressionProgramID},
			{PubKey: common.SystemProgramID},
		},
		Data: append(anchorDiscriminator("create_tree"), args...),
	}, nil
}

type metadataArgs struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	PrimarySaleHappened  bool
	IsMutable            bool
	EditionNonce         *uint8
	TokenStandard        *uint8
	Collection           *collectionArgs
	Uses                 *usesArgs
	TokenProgramVersion  uint8
	Creators             []creatorArgs
}

type collectionArgs struct {
	Verified bool
	Key      common.PublicKey
}

type usesArgs struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

type creatorArgs struct {
	Address  common.PublicKey
	Verified bool
	Share    uint8
}

const tokenStandardNonFungible uint8 = 0

type compressedMint struct {
	Payer              common.PublicKey
	Tree               common.PublicKey
	CollectionMint     common.PublicKey
	CollectionMetadata common.PublicKey
	CollectionEdition  common.PublicKey
	Request            ledger.MintRequest
}

func mintToCollectionInstruction(mint compressedMint) (types.Instruction, error) {
	authority, err := treeAuthority(mint.Tree)
	if err != nil {
		return types.Instruction{}, err
	}
	signer, err := bubblegumSigner()
	if err != nil {
		return types.Instruction{}, err
	}

	standard := tokenStandardNonFungible
	args, err := borsh.Serialize(metadataArgs{
		Name:                 mint.Request.Name,
		Symbol:               mint.Request.Symbol,
		URI:                  mint.Request.URI,
		SellerFeeBasisPoints: mint.Request.RoyaltyBps,
		IsMutable:            false,
		TokenStandard:        &standard,
		Collection:           &collectionArgs{Verified: false, Key: mint.CollectionMint},
		Creators:             []creatorArgs{{Address: mint.Payer, Verified: true, Share: 100}},
	})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("failed to encode metadata args: %w", err)
	}

	return types.Instruction{
		ProgramID: bubblegumProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: authority, IsWritable: true},
			{PubKey: mint.Payer},
			{PubKey: mint.Payer},
			{PubKey: mint.Tree, IsWritable: true},
			{PubKey: mint.Payer, IsSigner: true, IsWritable: true},
			{PubKey: mint.Payer, IsSigner: true},
			{PubKey: mint.Payer, IsSigner: true},
			// no collection authority record
			{PubKey: bubblegumProgramID},
			{PubKey: mint.CollectionMint},
			{PubKey: mint.CollectionMetadata, IsWritable: true},
			{PubKey: mint.CollectionEdition},
			{PubKey: signer},
			{PubKey: noopProgramID},
			{PubKey: compressionProgramID},
			{PubKey: common.MetaplexTokenMetaProgramID},
			{PubKey: common.SystemProgramID},
		},
		Data: append(anchorDiscriminator("mint_to_collection_v1"), args...),
	}, nil
}
