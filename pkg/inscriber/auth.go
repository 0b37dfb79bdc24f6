package inscriber

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const defaultAuthURL = "https://kiloscribe.com"

type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthClient creates a client for the challenge login. A base URL that
// ends in /api is accepted and trimmed.
func NewAuthClient(baseURL string, httpClient *http.Client) *AuthClient {
	normalized := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if normalized == "" {
		normalized = defaultAuthURL
	}
	normalized = strings.TrimSuffix(normalized, "/api")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &AuthClient{baseURL: normalized, httpClient: httpClient}
}

// Authenticate signs the service challenge with key and returns an API key.
func (c *AuthClient) Authenticate(
	ctx context.Context,
	accountID string,
	key hedera.PrivateKey,
	network string,
) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/request-signature", nil)
	if err != nil {
		return "", err
	}
	request.Header.Set("x-session", accountID)

	var challenge struct {
		Message json.RawMessage `json:"message"`
	}
	if err := c.do(request, "request signature", &challenge); err != nil {
		return "", err
	}
	if len(challenge.Message) == 0 {
		return "", minterr.Newf(minterr.KindAuth, "request signature", "challenge did not include a message")
	}

	signingPayload, authData, err := normalizeChallengeMessage(challenge.Message)
	if err != nil {
		return "", minterr.New(minterr.KindAuth, "request signature", err)
	}

	body, err := json.Marshal(map[string]any{
		"authData": map[string]any{
			"id":        accountID,
			"signature": hex.EncodeToString(key.Sign([]byte(signingPayload))),
			"data":      authData,
			"network":   network,
		},
		"include": "apiKey",
	})
	if err != nil {
		return "", err
	}
	authRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/authenticate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	authRequest.Header.Set("Content-Type", "application/json")

	var result struct {
		APIKey string `json:"apiKey"`
		User   struct {
			SessionToken string `json:"sessionToken"`
		} `json:"user"`
	}
	if err := c.do(authRequest, "authenticate", &result); err != nil {
		return "", err
	}
	if strings.TrimSpace(result.User.SessionToken) == "" || strings.TrimSpace(result.APIKey) == "" {
		return "", minterr.Newf(minterr.KindAuth, "authenticate", "response did not include a session token and API key")
	}
	return result.APIKey, nil
}

func (c *AuthClient) do(request *http.Request, op string, target any) error {
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
		kind := minterr.FromHTTPStatus(response.StatusCode)
		if kind == minterr.KindUploadRejected {
			kind = minterr.KindAuth
		}
		return minterr.Newf(kind, op, "status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return minterr.New(minterr.KindAuth, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// normalizeChallengeMessage returns the bytes to sign and the value to echo
// back. Object challenges are signed in their re-marshalled form.
func normalizeChallengeMessage(raw json.RawMessage) (string, any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", nil, fmt.Errorf("signature challenge message cannot be empty")
	}

	if strings.HasPrefix(trimmed, "\"") {
		var message string
		if err := json.Unmarshal(raw, &message); err != nil {
			return "", nil, fmt.Errorf("failed to decode string challenge: %w", err)
		}
		if strings.TrimSpace(message) == "" {
			return "", nil, fmt.Errorf("signature challenge string cannot be empty")
		}
		return message, message, nil
	}

	var object any
	if err := json.Unmarshal(raw, &object); err != nil {
		return "", nil, fmt.Errorf("failed to decode object challenge: %w", err)
	}
	normalized, err := json.Marshal(object)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode object challenge: %w", err)
	}
	return string(normalized), object, nil
}
