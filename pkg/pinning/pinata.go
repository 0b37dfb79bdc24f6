package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultPinataURL = "https://api.pinata.cloud"

type PinataConfig struct {
	JWT     string
	BaseURL string
	// CIDVersion selects the CID version Pinata returns. Zero yields Qm… hashes.
	CIDVersion        int
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *zerolog.Logger
}

type PinataClient struct {
	jwt        string
	baseURL    string
	cidVersion int
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     zerolog.Logger
}

type pinataResponse struct {
	IpfsHash    string `json:"IpfsHash"`
	PinSize     int64  `json:"PinSize"`
	Timestamp   string `json:"Timestamp"`
	IsDuplicate bool   `json:"isDuplicate"`
}

func NewPinataClient(config PinataConfig) (*PinataClient, error) {
	jwt := strings.TrimSpace(config.JWT)
	if jwt == "" {
		return nil, fmt.Errorf("pinata JWT is required")
	}
	if config.CIDVersion != 0 && config.CIDVersion != 1 {
		return nil, fmt.Errorf("cid version must be 0 or 1")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultPinataURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "pinata").Logger()
	}

	return &PinataClient{
		jwt:        jwt,
		baseURL:    baseURL,
		cidVersion: config.CIDVersion,
		limiter:    limiter,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Upload pins data under name and returns the IPFS hash.
func (c *PinataClient) Upload(ctx context.Context, name string, data []byte, groupID string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", minterr.Newf(minterr.KindUploadRejected, "pin file", "file name is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", minterr.New(minterr.KindTransientNetwork, "pin file", fmt.Errorf("rate limiter: %w", err))
		}
	}

	body, contentType, err := c.buildBody(name, data, groupID)
	if err != nil {
		return "", minterr.New(minterr.KindUploadRejected, "pin file", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return "", minterr.New(minterr.KindUploadRejected, "pin file", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.jwt)
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Accept", "application/json")

	started := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", minterr.New(minterr.KindTransientNetwork, "pin file", fmt.Errorf("pinata request for %s failed: %w", name, err))
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", minterr.New(minterr.KindTransientNetwork, "pin file", fmt.Errorf("failed to read pinata response: %w", err))
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", minterr.New(
			minterr.FromHTTPStatus(response.StatusCode),
			"pin file",
			fmt.Errorf("pinata upload of %s failed with status %d: %s", name, response.StatusCode, strings.TrimSpace(string(responseBody))),
		)
	}

	var parsed pinataResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return "", minterr.New(minterr.KindTransientNetwork, "pin file", fmt.Errorf("failed to decode pinata response: %w", err))
	}
	if _, err := cid.Decode(parsed.IpfsHash); err != nil {
		return "", minterr.New(minterr.KindUploadRejected, "pin file", fmt.Errorf("pinata returned invalid hash %q: %w", parsed.IpfsHash, err))
	}

	c.logger.Debug().
		Str("name", name).
		Str("cid", parsed.IpfsHash).
		Int64("size", parsed.PinSize).
		Bool("duplicate", parsed.IsDuplicate).
		Dur("elapsed", time.Since(started)).
		Msg("pinned file")

	return parsed.IpfsHash, nil
}

func (c *PinataClient) buildBody(name string, data []byte, groupID string) (io.Reader, string, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	metadata, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("pinataMetadata", string(metadata)); err != nil {
		return nil, "", err
	}

	options := map[string]any{"cidVersion": c.cidVersion}
	if groupID = strings.TrimSpace(groupID); groupID != "" {
		options["groupId"] = groupID
	}
	encodedOptions, err := json.Marshal(options)
	if err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("pinataOptions", string(encodedOptions)); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &buffer, writer.FormDataContentType(), nil
}
