package shared

import (
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/rpc"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

const (
	ClusterDevnet      = "devnet"
	ClusterTestnet     = "testnet"
	ClusterMainnetBeta = "mainnet-beta"
)

// NormalizeNetwork returns the canonical Hedera network name, defaulting to testnet.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkTestnet, nil
	}

	switch normalized {
	case NetworkMainnet, NetworkTestnet:
		return normalized, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// NewHederaClient creates a new HederaClient.
func NewHederaClient(network string) (*hedera.Client, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return nil, err
	}

	if normalized == NetworkMainnet {
		return hedera.ClientForMainnet(), nil
	}

	return hedera.ClientForTestnet(), nil
}

// SolanaEndpoint resolves a cluster name or RPC URL into an RPC URL. An empty
// value resolves to devnet.
func SolanaEndpoint(clusterOrURL string) (string, error) {
	candidate := strings.TrimSpace(clusterOrURL)
	if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
		return candidate, nil
	}

	switch strings.ToLower(candidate) {
	case "", ClusterDevnet:
		return rpc.DevnetRPCEndpoint, nil
	case ClusterTestnet:
		return rpc.TestnetRPCEndpoint, nil
	case ClusterMainnetBeta, NetworkMainnet:
		return rpc.MainnetRPCEndpoint, nil
	default:
		return "", fmt.Errorf("unsupported solana cluster %q", clusterOrURL)
	}
}
