package solana

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
)

type masterMint struct {
	Payer     common.PublicKey
	Mint      common.PublicKey
	MintRent  uint64
	Data      token_metadata.DataV2
	IsMutable bool
	// CollectionDetails is set only on collection parents.
	CollectionDetails *token_metadata.CollectionDetails
}

// sizedCollection marks a new collection parent whose item count the
// metadata program maintains as members are verified.
func sizedCollection() *token_metadata.CollectionDetails {
	return &token_metadata.CollectionDetails{
		Enum: 0,
		V1:   token_metadata.CollectionDetailsV1{Size: 0},
	}
}

// masterMintInstructions creates a one-of-one token: mint account, metadata,
// owner token account holding one unit and a master edition without prints.
func masterMintInstructions(params masterMint) ([]types.Instruction, error) {
	metadata, err := token_metadata.GetTokenMetaPubkey(params.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive metadata address: %w", err)
	}
	edition, err := token_metadata.GetMasterEdition(params.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master edition address: %w", err)
	}
	ata, _, err := common.FindAssociatedTokenAddress(params.Payer, params.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive token account: %w", err)
	}

	maxSupply := uint64(0)

	return []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     params.Payer,
			New:      params.Mint,
			Owner:    common.TokenProgramID,
			Lamports: params.MintRent,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   0,
			Mint:       params.Mint,
			MintAuth:   params.Payer,
			FreezeAuth: &params.Payer,
		}),
		token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
			Metadata:                metadata,
			Mint:                    params.Mint,
			MintAuthority:           params.Payer,
			UpdateAuthority:         params.Payer,
			Payer:                   params.Payer,
			UpdateAuthorityIsSigner: true,
			IsMutable:               params.IsMutable,
			Data:                    params.Data,
			CollectionDetails:       params.CollectionDetails,
		}),
		associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
			Funder:                 params.Payer,
			Owner:                  params.Payer,
			Mint:                   params.Mint,
			AssociatedTokenAccount: ata,
		}),
		token.MintTo(token.MintToParam{
			Mint:   params.Mint,
			To:     ata,
			Auth:   params.Payer,
			Amount: 1,
		}),
		token_metadata.CreateMasterEditionV3(token_metadata.CreateMasterEditionParam{
			Edition:         edition,
			Mint:            params.Mint,
			UpdateAuthority: params.Payer,
			MintAuthority:   params.Payer,
			Metadata:        metadata,
			Payer:           params.Payer,
			MaxSupply:       &maxSupply,
		}),
	}, nil
}

func itemData(name, symbol, uri string, royaltyBps uint16, creator common.PublicKey, collection *common.PublicKey) token_metadata.DataV2 {
	data := token_metadata.DataV2{
		Name:                 name,
		Symbol:               symbol,
		Uri:                  uri,
		SellerFeeBasisPoints: royaltyBps,
		Creators: &[]token_metadata.Creator{
			{Address: creator, Verified: true, Share: 100},
		},
	}
	if collection != nil {
		data.Collection = &token_metadata.Collection{Verified: false, Key: *collection}
	}
	return data
}

type collectionAccounts struct {
	Mint     common.PublicKey
	Metadata common.PublicKey
	Edition  common.PublicKey
}

func deriveCollectionAccounts(mint common.PublicKey) (collectionAccounts, error) {
	metadata, err := token_metadata.GetTokenMetaPubkey(mint)
	if err != nil {
		return collectionAccounts{}, fmt.Errorf("failed to derive collection metadata: %w", err)
	}
	edition, err := token_metadata.GetMasterEdition(mint)
	if err != nil {
		return collectionAccounts{}, fmt.Errorf("failed to derive collection edition: %w", err)
	}
	return collectionAccounts{Mint: mint, Metadata: metadata, Edition: edition}, nil
}

// verifySizedItemInstruction marks an item as a verified member of a sized
// collection. The collection metadata is writable because the program bumps
// its size.
func verifySizedItemInstruction(itemMetadata, authority common.PublicKey, collection collectionAccounts) types.Instruction {
	return types.Instruction{
		ProgramID: common.MetaplexTokenMetaProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: itemMetadata, IsWritable: true},
			{PubKey: authority, IsSigner: true},
			{PubKey: authority, IsSigner: true, IsWritable: true},
			{PubKey: collection.Mint},
			{PubKey: collection.Metadata, IsWritable: true},
			{PubKey: collection.Edition},
		},
		Data: []byte{byte(token_metadata.InstructionVerifySizedCollectionItem)},
	}
}
