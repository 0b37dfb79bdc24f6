package solana

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
	"github.com/rs/zerolog"
)

// rpcClient is the subset of the RPC client the ledger uses.
type rpcClient interface {
	GetBalance(ctx context.Context, base58Addr string) (uint64, error)
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	GetSignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error)
}

type Config struct {
	// Endpoint is a cluster name (devnet, testnet, mainnet-beta) or an RPC URL.
	Endpoint        string
	Signer          types.Account
	ConfirmAttempts int
	ConfirmInterval time.Duration
	Logger          *zerolog.Logger
}

type Client struct {
	rpc             rpcClient
	signer          types.Account
	confirmAttempts int
	confirmInterval time.Duration
	logger          zerolog.Logger
}

var _ ledger.Client = (*Client)(nil)
var _ ledger.Wallet = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	endpoint, err := shared.SolanaEndpoint(config.Endpoint)
	if err != nil {
		return nil, err
	}
	return newClient(client.NewClient(endpoint), config)
}

func newClient(conn rpcClient, config Config) (*Client, error) {
	if len(config.Signer.PrivateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signer private key is required")
	}
	confirmAttempts := config.ConfirmAttempts
	if confirmAttempts <= 0 {
		confirmAttempts = 60
	}
	confirmInterval := config.ConfirmInterval
	if confirmInterval <= 0 {
		confirmInterval = 2 * time.Second
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("ledger", "solana").Logger()
	}
	return &Client{
		rpc:             conn,
		signer:          config.Signer,
		confirmAttempts: confirmAttempts,
		confirmInterval: confirmInterval,
		logger:          logger,
	}, nil
}

func (c *Client) Address() string {
	return c.signer.PublicKey.ToBase58()
}

func (c *Client) Balance(ctx context.Context) (ledger.Balance, error) {
	lamports, err := c.rpc.GetBalance(ctx, c.Address())
	if err != nil {
		return ledger.Balance{}, classify("query balance", err)
	}
	return ledger.Balance{Amount: lamports, Unit: "SOL", Decimals: 9}, nil
}

// CreateCollection mints the sized collection NFT that items point at.
func (c *Client) CreateCollection(ctx context.Context, spec ledger.CollectionSpec) (string, error) {
	if spec.Name == "" {
		return "", minterr.Newf(minterr.KindInvalidConfig, "create collection", "collection name is required")
	}
	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", classify("create collection", err)
	}

	mint := types.NewAccount()
	instructions, err := masterMintInstructions(masterMint{
		Payer:             c.signer.PublicKey,
		Mint:              mint.PublicKey,
		MintRent:          rent,
		Data:              itemData(spec.Name, spec.Symbol, spec.URI, spec.RoyaltyBps, c.signer.PublicKey, nil),
		CollectionDetails: sizedCollection(),
	})
	if err != nil {
		return "", minterr.New(minterr.KindRejectedByLedger, "create collection", err)
	}

	signature, err := c.send(ctx, "create collection", instructions, mint)
	if err != nil {
		return "", err
	}
	c.logger.Info().Str("collection", mint.PublicKey.ToBase58()).Str("tx", signature).Msg("created collection")
	return mint.PublicKey.ToBase58(), nil
}

// CreateCommitmentTree allocates a concurrent merkle tree and registers it
// with Bubblegum.
func (c *Client) CreateCommitmentTree(ctx context.Context, spec ledger.TreeSpec) (string, error) {
	if err := validateTreeShape(spec); err != nil {
		return "", minterr.New(minterr.KindInvalidConfig, "create tree", err)
	}
	space := treeAccountSize(spec.MaxDepth, spec.MaxBufferSize, spec.CanopyDepth)
	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, space)
	if err != nil {
		return "", classify("create tree", err)
	}

	tree := types.NewAccount()
	createTree, err := createTreeInstruction(c.signer.PublicKey, tree.PublicKey, spec)
	if err != nil {
		return "", minterr.New(minterr.KindRejectedByLedger, "create tree", err)
	}
	instructions := []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     c.signer.PublicKey,
			New:      tree.PublicKey,
			Owner:    compressionProgramID,
			Lamports: rent,
			Space:    space,
		}),
		createTree,
	}

	signature, err := c.send(ctx, "create tree", instructions, tree)
	if err != nil {
		return "", err
	}
	c.logger.Info().Str("tree", tree.PublicKey.ToBase58()).Uint64("space", space).Str("tx", signature).Msg("created commitment tree")
	return tree.PublicKey.ToBase58(), nil
}

func (c *Client) Mint(ctx context.Context, request ledger.MintRequest) (ledger.MintResult, error) {
	if err := request.Validate(); err != nil {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindRejectedByLedger, "mint", request.ItemID, err)
	}
	collection, err := parsePublicKey(request.CollectionID)
	if err != nil {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindInvalidConfig, "mint", request.ItemID, err)
	}

	var result ledger.MintResult
	if request.Compressed() {
		result, err = c.mintCompressed(ctx, request, collection)
	} else {
		result, err = c.mintRegular(ctx, request, collection)
	}
	if err != nil {
		return ledger.MintResult{}, minterr.WithItem(err, "mint", request.ItemID)
	}
	return result, nil
}

func (c *Client) mintRegular(ctx context.Context, request ledger.MintRequest, collection common.PublicKey) (ledger.MintResult, error) {
	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return ledger.MintResult{}, classify("mint", err)
	}

	mint := types.NewAccount()
	instructions, err := masterMintInstructions(masterMint{
		Payer:     c.signer.PublicKey,
		Mint:      mint.PublicKey,
		MintRent:  rent,
		Data:      itemData(request.Name, request.Symbol, request.URI, request.RoyaltyBps, c.signer.PublicKey, &collection),
		IsMutable: false,
	})
	if err != nil {
		return ledger.MintResult{}, minterr.New(minterr.KindRejectedByLedger, "mint", err)
	}

	signature, err := c.send(ctx, "mint", instructions, mint)
	if err != nil {
		return ledger.MintResult{}, err
	}
	return ledger.MintResult{
		ItemID:    request.ItemID,
		TokenID:   mint.PublicKey.ToBase58(),
		Signature: signature,
	}, nil
}

func (c *Client) mintCompressed(ctx context.Context, request ledger.MintRequest, collection common.PublicKey) (ledger.MintResult, error) {
	tree, err := parsePublicKey(request.TreeID)
	if err != nil {
		return ledger.MintResult{}, minterr.New(minterr.KindInvalidConfig, "mint", err)
	}
	config, err := c.treeConfig(ctx, tree)
	if err != nil {
		return ledger.MintResult{}, err
	}
	if config.NumMinted >= config.TotalMintCapacity {
		return ledger.MintResult{}, minterr.Newf(minterr.KindCapacityExceeded, "mint",
			"tree %s holds %d of %d leaves", request.TreeID, config.NumMinted, config.TotalMintCapacity)
	}

	accounts, err := deriveCollectionAccounts(collection)
	if err != nil {
		return ledger.MintResult{}, minterr.New(minterr.KindRejectedByLedger, "mint", err)
	}
	instruction, err := mintToCollectionInstruction(compressedMint{
		Payer:              c.signer.PublicKey,
		Tree:               tree,
		CollectionMint:     accounts.Mint,
		CollectionMetadata: accounts.Metadata,
		CollectionEdition:  accounts.Edition,
		Request:            request,
	})
	if err != nil {
		return ledger.MintResult{}, minterr.New(minterr.KindRejectedByLedger, "mint", err)
	}

	signature, err := c.send(ctx, "mint", []types.Instruction{instruction})
	if err != nil {
		return ledger.MintResult{}, err
	}
	asset, err := assetID(tree, config.NumMinted)
	if err != nil {
		return ledger.MintResult{}, minterr.New(minterr.KindRejectedByLedger, "mint", err)
	}

	c.logger.Debug().Int("id", request.ItemID).Uint64("leaf", config.NumMinted).Str("asset", asset.ToBase58()).Msg("minted compressed asset")
	return ledger.MintResult{
		ItemID:     request.ItemID,
		TokenID:    asset.ToBase58(),
		Signature:  signature,
		Compressed: true,
		LeafIndex:  config.NumMinted,
		Verified:   true,
	}, nil
}

func (c *Client) treeConfig(ctx context.Context, tree common.PublicKey) (treeConfig, error) {
	authority, err := treeAuthority(tree)
	if err != nil {
		return treeConfig{}, minterr.New(minterr.KindRejectedByLedger, "read tree", err)
	}
	account, err := c.rpc.GetAccountInfo(ctx, authority.ToBase58())
	if err != nil {
		return treeConfig{}, classify("read tree", err)
	}
	if len(account.Data) == 0 {
		return treeConfig{}, minterr.Newf(minterr.KindNotFound, "read tree", "tree %s has no Bubblegum config", tree.ToBase58())
	}
	config, err := parseTreeConfig(account.Data)
	if err != nil {
		return treeConfig{}, minterr.New(minterr.KindRejectedByLedger, "read tree", err)
	}
	return config, nil
}

// VerifyMembership marks a regular mint as a verified member of its
// collection. Already verified items return without sending a transaction.
func (c *Client) VerifyMembership(ctx context.Context, tokenID string, collectionID string) error {
	mint, err := parsePublicKey(tokenID)
	if err != nil {
		return minterr.New(minterr.KindRejectedByLedger, "verify", err)
	}
	collection, err := parsePublicKey(collectionID)
	if err != nil {
		return minterr.New(minterr.KindInvalidConfig, "verify", err)
	}
	metadataAddress, err := token_metadata.GetTokenMetaPubkey(mint)
	if err != nil {
		return minterr.New(minterr.KindRejectedByLedger, "verify", err)
	}

	account, err := c.rpc.GetAccountInfo(ctx, metadataAddress.ToBase58())
	if err != nil {
		return classify("verify", err)
	}
	if len(account.Data) == 0 {
		return minterr.Newf(minterr.KindNotFound, "verify", "token %s has no metadata account", tokenID)
	}
	metadata, err := token_metadata.MetadataDeserialize(account.Data)
	if err != nil {
		return minterr.New(minterr.KindRejectedByLedger, "verify", fmt.Errorf("failed to decode metadata: %w", err))
	}
	if metadata.Collection == nil || metadata.Collection.Key != collection {
		return minterr.Newf(minterr.KindRejectedByLedger, "verify", "token %s does not reference collection %s", tokenID, collectionID)
	}
	if metadata.Collection.Verified {
		return nil
	}

	accounts, err := deriveCollectionAccounts(collection)
	if err != nil {
		return minterr.New(minterr.KindRejectedByLedger, "verify", err)
	}
	instruction := verifySizedItemInstruction(metadataAddress, c.signer.PublicKey, accounts)
	if _, err := c.send(ctx, "verify", []types.Instruction{instruction}); err != nil {
		return err
	}
	return nil
}

// send signs with the payer plus any extra signers, submits, and waits for
// the transaction to finalize.
func (c *Client) send(ctx context.Context, op string, instructions []types.Instruction, extraSigners ...types.Account) (string, error) {
	latest, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", classify(op, err)
	}
	signers := append([]types.Account{c.signer}, extraSigners...)
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: signers,
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        c.signer.PublicKey,
			RecentBlockhash: latest.Blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return "", minterr.New(minterr.KindRejectedByLedger, op, fmt.Errorf("failed to build transaction: %w", err))
	}

	signature, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", classify(op, err)
	}
	if err := c.awaitFinalized(ctx, op, signature); err != nil {
		return signature, err
	}
	return signature, nil
}

func (c *Client) awaitFinalized(ctx context.Context, op string, signature string) error {
	for attempt := 1; attempt <= c.confirmAttempts; attempt++ {
		status, err := c.rpc.GetSignatureStatus(ctx, signature)
		if err != nil {
			return classify(op, err)
		}
		if status != nil {
			if status.Err != nil {
				return minterr.Newf(minterr.KindRejectedByLedger, op, "transaction %s failed: %v", signature, status.Err)
			}
			if status.ConfirmationStatus != nil && *status.ConfirmationStatus == rpc.CommitmentFinalized {
				return nil
			}
		}
		if attempt == c.confirmAttempts {
			break
		}
		timer := time.NewTimer(c.confirmInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return minterr.New(minterr.KindTransientNetwork, op, ctx.Err())
		case <-timer.C:
		}
	}
	return minterr.Newf(minterr.KindTransientNetwork, op, "transaction %s not finalized after %d checks", signature, c.confirmAttempts)
}
