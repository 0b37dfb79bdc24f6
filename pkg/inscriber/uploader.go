package inscriber

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/pinning"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

// executeFunc signs and submits the base64 transaction a started job returns
// and yields its transaction ID.
type executeFunc func(ctx context.Context, transactionBytes string) (string, error)

type UploaderConfig struct {
	Client    *Client
	Network   string
	AccountID string
	Key       hedera.PrivateKey
	Wait      WaitOptions
	Logger    *zerolog.Logger
}

// Uploader inscribes files as HCS-1 topics.
type Uploader struct {
	client    *Client
	accountID string
	execute   executeFunc
	wait      WaitOptions
	logger    zerolog.Logger
}

var _ pinning.Client = (*Uploader)(nil)

func NewUploader(config UploaderConfig) (*Uploader, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("inscriber client is required")
	}
	accountID, err := hedera.AccountIDFromString(strings.TrimSpace(config.AccountID))
	if err != nil {
		return nil, fmt.Errorf("invalid account ID: %w", err)
	}
	hederaClient, err := shared.NewHederaClient(config.Network)
	if err != nil {
		return nil, err
	}
	hederaClient.SetOperator(accountID, config.Key)

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("pinning", "inscriber").Logger()
	}
	return &Uploader{
		client:    config.Client,
		accountID: accountID.String(),
		execute:   transactionExecutor(hederaClient, config.Key),
		wait:      config.Wait,
		logger:    logger,
	}, nil
}

// Upload inscribes data and returns hcs://1/<topic>. groupID, when set, is
// attached as a tag.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte, groupID string) (string, error) {
	request := StartRequest{
		HolderID: u.accountID,
		File: FileInput{
			Base64:   base64.StdEncoding.EncodeToString(data),
			FileName: name,
			MimeType: mimeTypeFor(name),
		},
	}
	if groupID != "" {
		request.Tags = []string{groupID}
	}

	job, err := u.client.StartInscription(ctx, request)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(job.TransactionBytes) == "" {
		return "", minterr.Newf(minterr.KindUploadRejected, "start inscription", "job %s did not include transaction bytes", job.ID)
	}

	transactionID, err := u.execute(ctx, job.TransactionBytes)
	if err != nil {
		return "", err
	}

	finished, err := u.client.WaitForInscription(ctx, transactionID, u.wait)
	if err != nil {
		return "", err
	}
	topicID := finished.TopicID
	if topicID == "" {
		topicID = job.TopicID
	}
	if topicID == "" {
		return "", minterr.Newf(minterr.KindUploadRejected, "wait for inscription", "inscription %s finished without a topic", transactionID)
	}

	u.logger.Debug().Str("name", name).Int("bytes", len(data)).Str("topic", topicID).Msg("inscribed file")
	return "hcs://1/" + topicID, nil
}

func mimeTypeFor(name string) string {
	if byExtension := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExtension != "" {
		return strings.SplitN(byExtension, ";", 2)[0]
	}
	return "application/octet-stream"
}

// transactionExecutor executes with the operator client first and retries
// with an explicit signature when the node reports INVALID_SIGNATURE.
func transactionExecutor(client *hedera.Client, key hedera.PrivateKey) executeFunc {
	return func(ctx context.Context, transactionBytes string) (string, error) {
		raw, err := base64.StdEncoding.DecodeString(transactionBytes)
		if err != nil {
			return "", minterr.New(minterr.KindUploadRejected, "execute inscription", fmt.Errorf("transaction bytes must be base64: %w", err))
		}

		var lastErr error
		for _, manualSign := range []bool{false, true} {
			if ctx.Err() != nil {
				return "", minterr.New(minterr.KindTransientNetwork, "execute inscription", ctx.Err())
			}
			transaction, err := hedera.TransactionFromBytes(raw)
			if err != nil {
				return "", minterr.New(minterr.KindUploadRejected, "execute inscription", fmt.Errorf("failed to decode transaction: %w", err))
			}
			if manualSign {
				transaction, err = hedera.TransactionSign(transaction, key)
				if err != nil {
					return "", minterr.New(minterr.KindUploadRejected, "execute inscription", err)
				}
			}

			response, err := hedera.TransactionExecute(transaction, client)
			if err != nil {
				lastErr = err
				if strings.Contains(strings.ToUpper(err.Error()), "INVALID_SIGNATURE") {
					continue
				}
				return "", classifyExecution(err)
			}
			receipt, err := response.GetReceipt(client)
			if err != nil {
				return "", classifyExecution(err)
			}
			if receipt.Status != hedera.StatusSuccess {
				return "", classifyExecution(fmt.Errorf("transaction failed with status %s", receipt.Status.String()))
			}
			return response.TransactionID.String(), nil
		}
		return "", minterr.New(minterr.KindUploadRejected, "execute inscription", lastErr)
	}
}

func classifyExecution(err error) error {
	text := strings.ToUpper(err.Error())
	switch {
	case strings.Contains(text, "INSUFFICIENT_PAYER_BALANCE"), strings.Contains(text, "INSUFFICIENT_TX_FEE"):
		return minterr.New(minterr.KindInsufficientFunds, "execute inscription", err)
	case strings.Contains(text, "STATUS"):
		return minterr.New(minterr.KindUploadRejected, "execute inscription", err)
	default:
		return minterr.New(minterr.KindTransientNetwork, "execute inscription", err)
	}
}
