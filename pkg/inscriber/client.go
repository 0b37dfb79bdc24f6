package inscriber

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
)

const defaultBaseURL = "https://v2-api.tier.bot/api"

type Config struct {
	APIKey              string
	Network             string
	BaseURL             string
	HTTPClient          *http.Client
	ConnectionMode      ConnectionMode
	WebSocketBaseURL    string
	WebSocketInactivity time.Duration
}

type Client struct {
	apiKey              string
	network             string
	baseURL             string
	httpClient          *http.Client
	connectionMode      ConnectionMode
	webSocketBaseURL    string
	webSocketInactivity time.Duration
}

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	connectionMode := config.ConnectionMode
	if connectionMode == "" {
		connectionMode = ConnectionModeWebSocket
	}
	if connectionMode != ConnectionModeHTTP && connectionMode != ConnectionModeWebSocket {
		return nil, fmt.Errorf("connection mode must be http or websocket")
	}
	inactivity := config.WebSocketInactivity
	if inactivity <= 0 {
		inactivity = 30 * time.Second
	}

	return &Client{
		apiKey:              apiKey,
		network:             network,
		baseURL:             baseURL,
		httpClient:          httpClient,
		connectionMode:      connectionMode,
		webSocketBaseURL:    strings.TrimSpace(config.WebSocketBaseURL),
		webSocketInactivity: inactivity,
	}, nil
}

// StartInscription asks the service to prepare a file inscription. The job it
// returns carries the transaction the holder must sign and execute.
func (c *Client) StartInscription(ctx context.Context, request StartRequest) (Job, error) {
	if strings.TrimSpace(request.HolderID) == "" {
		return Job{}, fmt.Errorf("holder ID is required")
	}
	if request.File.Base64 == "" || strings.TrimSpace(request.File.FileName) == "" {
		return Job{}, fmt.Errorf("file content and name are required")
	}

	body := map[string]any{
		"holderId":   request.HolderID,
		"mode":       modeFile,
		"network":    c.network,
		"fileBase64": request.File.Base64,
		"fileName":   request.File.FileName,
	}
	if request.File.MimeType != "" {
		body["fileMimeType"] = request.File.MimeType
	}
	if len(request.Tags) > 0 {
		body["tags"] = request.Tags
	}

	var raw map[string]any
	if err := c.postJSON(ctx, "/inscriptions/start-inscription", body, &raw); err != nil {
		return Job{}, err
	}
	return parseJob(raw)
}

func (c *Client) RetrieveInscription(ctx context.Context, txID string) (Job, error) {
	normalizedID := normalizeTransactionID(txID)
	if normalizedID == "" {
		return Job{}, fmt.Errorf("transaction ID is required")
	}

	var raw map[string]any
	if err := c.getJSON(ctx, "/inscriptions/retrieve-inscription?id="+url.QueryEscape(normalizedID), &raw); err != nil {
		return Job{}, err
	}
	job, err := parseJob(raw)
	if err != nil {
		return Job{}, err
	}
	if strings.EqualFold(job.Status, "completed") {
		job.Completed = true
	}
	if job.TxID == "" {
		job.TxID = normalizedID
	}
	return job, nil
}

// WaitForInscription blocks until the job for txID completes. In websocket
// mode a failed or silent socket falls back to polling.
func (c *Client) WaitForInscription(ctx context.Context, txID string, options WaitOptions) (Job, error) {
	if c.connectionMode == ConnectionModeWebSocket {
		job, err := c.waitForInscriptionWebSocket(ctx, txID)
		if err == nil {
			return job, nil
		}
		if ctx.Err() != nil {
			return Job{}, minterr.New(minterr.KindTransientNetwork, "wait for inscription", ctx.Err())
		}
		if minterr.Is(err, minterr.KindUploadRejected) {
			return Job{}, err
		}
	}
	return c.pollInscription(ctx, txID, options)
}

func (c *Client) pollInscription(ctx context.Context, txID string, options WaitOptions) (Job, error) {
	maxAttempts := options.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 60
	}
	interval := options.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		job, err := c.RetrieveInscription(ctx, txID)
		switch {
		case err != nil && !minterr.IsRetryable(err):
			return Job{}, err
		case err == nil && strings.EqualFold(job.Status, "failed"):
			reason := job.Error
			if reason == "" {
				reason = "inscription failed"
			}
			return job, minterr.Newf(minterr.KindUploadRejected, "wait for inscription", "%s", reason)
		case err == nil && job.Completed:
			return job, nil
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return Job{}, minterr.New(minterr.KindTransientNetwork, "wait for inscription", ctx.Err())
		case <-time.After(interval):
		}
	}
	return Job{}, minterr.Newf(minterr.KindTransientNetwork, "wait for inscription", "inscription did not complete within %d attempts", maxAttempts)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(endpoint), nil)
	if err != nil {
		return err
	}
	return c.do(request, target)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, target)
}

func (c *Client) do(request *http.Request, target any) error {
	op := "inscriber " + request.Method + " " + request.URL.Path
	request.Header.Set("x-api-key", c.apiKey)
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return minterr.New(minterr.KindTransientNetwork, op, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return minterr.New(minterr.KindTransientNetwork, op, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return minterr.Newf(minterr.FromHTTPStatus(response.StatusCode), op,
			"status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return minterr.New(minterr.KindUploadRejected, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) resolveURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if strings.HasPrefix(endpoint, "/") {
		return c.baseURL + endpoint
	}
	return c.baseURL + "/" + endpoint
}

func parseJob(raw map[string]any) (Job, error) {
	job := Job{
		ID:            parseString(raw["id"]),
		Status:        parseString(raw["status"]),
		TxID:          parseString(raw["tx_id"]),
		TopicID:       firstNonEmptyString(raw, "topic_id", "topicId"),
		TransactionID: parseString(raw["transactionId"]),
		Error:         parseString(raw["error"]),
	}
	if completed, ok := raw["completed"].(bool); ok {
		job.Completed = completed
	}

	transactionBytes, err := normalizeTransactionBytes(raw["transactionBytes"])
	if err != nil {
		return Job{}, err
	}
	job.TransactionBytes = transactionBytes
	return job, nil
}

// normalizeTransactionBytes accepts base64 text or a serialized Node Buffer
// ({"type":"Buffer","data":[...]}) and returns base64.
func normalizeTransactionBytes(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case map[string]any:
		if typeValue, _ := typed["type"].(string); typeValue != "Buffer" {
			return "", fmt.Errorf("unsupported transactionBytes object type %q", typeValue)
		}
		items, ok := typed["data"].([]any)
		if !ok {
			return "", fmt.Errorf("transactionBytes Buffer object missing data array")
		}
		decoded := make([]byte, 0, len(items))
		for _, item := range items {
			number, ok := item.(float64)
			if !ok {
				return "", fmt.Errorf("transactionBytes data includes non-numeric value %T", item)
			}
			decoded = append(decoded, byte(number))
		}
		return base64.StdEncoding.EncodeToString(decoded), nil
	default:
		return "", fmt.Errorf("unsupported transactionBytes type %T", value)
	}
}

// normalizeTransactionID converts 0.0.1@1700000000.123 to the dashed form the
// service indexes jobs by.
func normalizeTransactionID(txID string) string {
	trimmed := strings.TrimSpace(txID)
	parts := strings.Split(trimmed, "@")
	if len(parts) != 2 {
		return trimmed
	}
	return parts[0] + "-" + strings.ReplaceAll(parts[1], ".", "-")
}
