package mirror

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
)

// ErrNotFound is returned when the mirror node has no record of an entity.
var ErrNotFound = errors.New("mirror node entity not found")

type Config struct {
	Network    string
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		if network == shared.NetworkMainnet {
			baseURL = "https://mainnet-public.mirrornode.hedera.com"
		} else {
			baseURL = "https://testnet.mirrornode.hedera.com"
		}
	}
	parsedBaseURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mirror base URL: %w", err)
	}
	if parsedBaseURL.Scheme != "http" && parsedBaseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid mirror base URL: scheme must be http or https")
	}
	if strings.TrimSpace(parsedBaseURL.Host) == "" {
		return nil, fmt.Errorf("invalid mirror base URL: host is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(parsedBaseURL.String(), "/"),
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(config.APIKey),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetTopicInfo returns the requested value.
func (c *Client) GetTopicInfo(ctx context.Context, topicID string) (TopicInfo, error) {
	var topicInfo TopicInfo
	if strings.TrimSpace(topicID) == "" {
		return topicInfo, fmt.Errorf("topic ID is required")
	}
	err := c.getJSON(ctx, "/api/v1/topics/"+url.PathEscape(topicID), &topicInfo)
	return topicInfo, err
}

// GetLatestTopicMessage returns the newest message of a topic, or nil when
// the topic has none.
func (c *Client) GetLatestTopicMessage(ctx context.Context, topicID string) (*TopicMessage, error) {
	return c.firstMessage(ctx, topicID, url.Values{"order": {"desc"}, "limit": {"1"}})
}

// GetTopicMessageBySequence returns one message, or nil when it does not exist yet.
func (c *Client) GetTopicMessageBySequence(ctx context.Context, topicID string, sequence int64) (*TopicMessage, error) {
	if sequence <= 0 {
		return nil, fmt.Errorf("sequence must be positive")
	}
	return c.firstMessage(ctx, topicID, url.Values{
		"sequencenumber": {fmt.Sprintf("eq:%d", sequence)},
		"limit":          {"1"},
		"order":          {"asc"},
	})
}

func (c *Client) firstMessage(ctx context.Context, topicID string, query url.Values) (*TopicMessage, error) {
	if strings.TrimSpace(topicID) == "" {
		return nil, fmt.Errorf("topic ID is required")
	}
	var page topicMessagesResponse
	endpoint := fmt.Sprintf("/api/v1/topics/%s/messages?%s", url.PathEscape(topicID), query.Encode())
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	if len(page.Messages) == 0 {
		return nil, nil
	}
	return &page.Messages[0], nil
}

// DecodeMessageData returns the raw payload of a topic message.
func DecodeMessageData(message TopicMessage) ([]byte, error) {
	if strings.TrimSpace(message.Message) == "" {
		return nil, fmt.Errorf("message payload is empty")
	}
	return base64.StdEncoding.DecodeString(message.Message)
}

// GetNFT returns one serial of a non-fungible token.
func (c *Client) GetNFT(ctx context.Context, tokenID string, serial int64) (NFT, error) {
	var nft NFT
	if strings.TrimSpace(tokenID) == "" || serial <= 0 {
		return nft, fmt.Errorf("token ID and positive serial are required")
	}
	err := c.getJSON(ctx, fmt.Sprintf("/api/v1/tokens/%s/nfts/%d", url.PathEscape(tokenID), serial), &nft)
	return nft, err
}

func (c *Client) getJSON(ctx context.Context, pathOrURL string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(pathOrURL), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return minterr.New(minterr.KindTransientNetwork, "mirror request", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return minterr.New(minterr.KindTransientNetwork, "mirror request", fmt.Errorf("failed to read mirror node response: %w", err))
	}

	switch {
	case response.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= http.StatusInternalServerError:
		return minterr.Newf(minterr.KindTransientNetwork, "mirror request", "mirror node request failed with status %d", response.StatusCode)
	case response.StatusCode < 200 || response.StatusCode >= 300:
		return fmt.Errorf("mirror node request failed with status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode mirror node response: %w", err)
	}
	return nil
}

func (c *Client) resolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL
}
