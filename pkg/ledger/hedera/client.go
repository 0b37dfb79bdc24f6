package hedera

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/mirror"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

// MaxMetadataBytes is the HTS limit on per-serial metadata.
const MaxMetadataBytes = 100

type Config struct {
	Network           string
	OperatorAccountID string
	OperatorKey       *hedera.PrivateKey
	MirrorBaseURL     string
	MirrorClient      *mirror.Client
	// VerifyAttempts and VerifyInterval bound how long membership checks wait
	// for the mirror node to catch up with consensus.
	VerifyAttempts int
	VerifyInterval time.Duration
	Logger         *zerolog.Logger
}

type Client struct {
	hederaClient   *hedera.Client
	mirrorClient   *mirror.Client
	operatorID     hedera.AccountID
	operatorKey    hedera.PrivateKey
	verifyAttempts int
	verifyInterval time.Duration
	logger         zerolog.Logger
}

var _ ledger.Client = (*Client)(nil)
var _ ledger.Wallet = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(config.OperatorAccountID) == "" {
		return nil, fmt.Errorf("operator account ID is required")
	}
	accountID, err := hedera.AccountIDFromString(strings.TrimSpace(config.OperatorAccountID))
	if err != nil {
		return nil, fmt.Errorf("invalid operator account ID: %w", err)
	}
	if config.OperatorKey == nil {
		return nil, fmt.Errorf("operator key is required")
	}

	hederaClient, err := shared.NewHederaClient(network)
	if err != nil {
		return nil, err
	}
	hederaClient.SetOperator(accountID, *config.OperatorKey)

	mirrorClient := config.MirrorClient
	if mirrorClient == nil {
		mirrorClient, err = mirror.NewClient(mirror.Config{Network: network, BaseURL: config.MirrorBaseURL})
		if err != nil {
			return nil, err
		}
	}

	verifyAttempts := config.VerifyAttempts
	if verifyAttempts <= 0 {
		verifyAttempts = 10
	}
	verifyInterval := config.VerifyInterval
	if verifyInterval <= 0 {
		verifyInterval = 2 * time.Second
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("ledger", "hedera").Logger()
	}

	return &Client{
		hederaClient:   hederaClient,
		mirrorClient:   mirrorClient,
		operatorID:     accountID,
		operatorKey:    *config.OperatorKey,
		verifyAttempts: verifyAttempts,
		verifyInterval: verifyInterval,
		logger:         logger,
	}, nil
}

func (c *Client) Address() string {
	return c.operatorID.String()
}

func (c *Client) Balance(ctx context.Context) (ledger.Balance, error) {
	balance, err := await(ctx, func() (hedera.AccountBalance, error) {
		return hedera.NewAccountBalanceQuery().SetAccountID(c.operatorID).Execute(c.hederaClient)
	})
	if err != nil {
		return ledger.Balance{}, classify("query balance", err)
	}
	tinybars := balance.Hbars.AsTinybar()
	if tinybars < 0 {
		tinybars = 0
	}
	return ledger.Balance{Amount: uint64(tinybars), Unit: "HBAR", Decimals: 8}, nil
}

// CreateCollection creates a non-fungible token with the operator as
// treasury, admin and supply key.
func (c *Client) CreateCollection(ctx context.Context, spec ledger.CollectionSpec) (string, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", minterr.Newf(minterr.KindInvalidConfig, "create collection", "collection name is required")
	}
	maxSupply := spec.MaxSupply
	if maxSupply <= 0 {
		maxSupply = 10000
	}

	transaction := hedera.NewTokenCreateTransaction().
		SetTokenName(spec.Name).
		SetTokenSymbol(spec.Symbol).
		SetTokenType(hedera.TokenTypeNonFungibleUnique).
		SetSupplyType(hedera.TokenSupplyTypeFinite).
		SetMaxSupply(maxSupply).
		SetInitialSupply(0).
		SetDecimals(0).
		SetTreasuryAccountID(c.operatorID).
		SetAdminKey(c.operatorKey.PublicKey()).
		SetSupplyKey(c.operatorKey.PublicKey())
	if memo := strings.TrimSpace(spec.URI); memo != "" && len(memo) <= MaxMetadataBytes {
		transaction.SetTokenMemo(memo)
	}
	if spec.RoyaltyBps > 0 {
		royalty := hedera.NewCustomRoyaltyFee().
			SetNumerator(int64(spec.RoyaltyBps)).
			SetDenominator(10000).
			SetFeeCollectorAccountID(c.operatorID)
		transaction.SetCustomFees([]hedera.Fee{royalty})
	}

	receipt, transactionID, err := c.submit(ctx, "create collection", func() (hedera.TransactionResponse, error) {
		return transaction.Execute(c.hederaClient)
	})
	if err != nil {
		return "", err
	}
	if receipt.TokenID == nil {
		return "", minterr.Newf(minterr.KindRejectedByLedger, "create collection", "receipt for %s has no token ID", transactionID)
	}

	c.logger.Info().Str("collection", receipt.TokenID.String()).Str("tx", transactionID).Msg("created collection")
	return receipt.TokenID.String(), nil
}

// CreateCommitmentTree creates the topic that holds compressed-mint leaves.
func (c *Client) CreateCommitmentTree(ctx context.Context, spec ledger.TreeSpec) (string, error) {
	memo, err := formatTreeMemo(spec)
	if err != nil {
		return "", minterr.New(minterr.KindInvalidConfig, "create tree", err)
	}

	transaction := hedera.NewTopicCreateTransaction().
		SetTopicMemo(memo).
		SetAdminKey(c.operatorKey.PublicKey())
	if !spec.Public {
		transaction.SetSubmitKey(c.operatorKey.PublicKey())
	}

	receipt, transactionID, err := c.submit(ctx, "create tree", func() (hedera.TransactionResponse, error) {
		return transaction.Execute(c.hederaClient)
	})
	if err != nil {
		return "", err
	}
	if receipt.TopicID == nil {
		return "", minterr.Newf(minterr.KindRejectedByLedger, "create tree", "receipt for %s has no topic ID", transactionID)
	}

	c.logger.Info().Str("tree", receipt.TopicID.String()).Str("memo", memo).Msg("created commitment tree")
	return receipt.TopicID.String(), nil
}

func (c *Client) Mint(ctx context.Context, request ledger.MintRequest) (ledger.MintResult, error) {
	if err := request.Validate(); err != nil {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindRejectedByLedger, "mint", request.ItemID, err)
	}
	if request.Compressed() {
		return c.mintCompressed(ctx, request)
	}
	return c.mintRegular(ctx, request)
}

func (c *Client) mintRegular(ctx context.Context, request ledger.MintRequest) (ledger.MintResult, error) {
	if len(request.URI) > MaxMetadataBytes {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindRejectedByLedger, "mint", request.ItemID,
			fmt.Errorf("metadata URI is %d bytes; HTS allows %d", len(request.URI), MaxMetadataBytes))
	}
	tokenID, err := hedera.TokenIDFromString(request.CollectionID)
	if err != nil {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindInvalidConfig, "mint", request.ItemID, fmt.Errorf("invalid collection ID: %w", err))
	}

	transaction := hedera.NewTokenMintTransaction().
		SetTokenID(tokenID).
		SetMetadata([]byte(request.URI))

	receipt, transactionID, err := c.submit(ctx, "mint", func() (hedera.TransactionResponse, error) {
		return transaction.Execute(c.hederaClient)
	})
	if err != nil {
		return ledger.MintResult{}, minterr.WithItem(err, "mint", request.ItemID)
	}
	if len(receipt.SerialNumbers) == 0 {
		return ledger.MintResult{}, minterr.ForItem(minterr.KindRejectedByLedger, "mint", request.ItemID, fmt.Errorf("receipt for %s has no serial number", transactionID))
	}

	return ledger.MintResult{
		ItemID:    request.ItemID,
		TokenID:   formatSerialID(tokenID.String(), receipt.SerialNumbers[0]),
		Signature: transactionID,
	}, nil
}

// submit executes a transaction and waits for its receipt, mapping failure
// statuses onto error kinds.
func (c *Client) submit(
	ctx context.Context,
	op string,
	execute func() (hedera.TransactionResponse, error),
) (hedera.TransactionReceipt, string, error) {
	response, err := await(ctx, execute)
	if err != nil {
		return hedera.TransactionReceipt{}, "", classify(op, err)
	}
	transactionID := response.TransactionID.String()

	receipt, err := await(ctx, func() (hedera.TransactionReceipt, error) {
		return response.GetReceipt(c.hederaClient)
	})
	if err != nil {
		return hedera.TransactionReceipt{}, transactionID, classify(op, fmt.Errorf("transaction %s: %w", transactionID, err))
	}
	if receipt.Status != hedera.StatusSuccess {
		status := receipt.Status.String()
		return receipt, transactionID, minterr.New(kindForStatus(status), op, fmt.Errorf("transaction %s failed with status %s", transactionID, status))
	}
	return receipt, transactionID, nil
}

// await runs a blocking SDK call and stops waiting when ctx ends.
func await[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := call()
		done <- outcome{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case result := <-done:
		return result.value, result.err
	}
}
