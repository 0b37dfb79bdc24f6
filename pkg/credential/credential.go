package credential

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/tyler-smith/go-bip39"
)

type Kind int

const (
	KindMnemonic Kind = iota + 1
	KindEncodedKey
	KindRawKey
)

func (k Kind) String() string {
	switch k {
	case KindMnemonic:
		return "mnemonic"
	case KindEncodedKey:
		return "encoded-key"
	case KindRawKey:
		return "raw-key"
	default:
		return "unknown"
	}
}

type Encoding string

const (
	EncodingBase58 Encoding = "base58"
	EncodingHex    Encoding = "hex"
	EncodingDER    Encoding = "der"
)

type Credential struct {
	Kind     Kind
	Mnemonic string
	Encoded  string
	Encoding Encoding
	Raw      []byte
}

type Sources struct {
	Mnemonic   string
	PrivateKey string
	Encoding   string
	SecretName string
}

// SecretFetcher returns the payload of a secret version.
type SecretFetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Resolve picks a single credential from sources. fetcher may be nil when no
// secret is configured.
func Resolve(ctx context.Context, sources Sources, fetcher SecretFetcher) (Credential, error) {
	if mnemonic := normalizeMnemonic(sources.Mnemonic); mnemonic != "" {
		if !bip39.IsMnemonicValid(mnemonic) {
			return Credential{}, minterr.Newf(minterr.KindInvalidConfig, "resolve credential", "mnemonic is not a valid BIP-39 phrase")
		}
		return Credential{Kind: KindMnemonic, Mnemonic: mnemonic}, nil
	}

	privateKey := strings.TrimSpace(sources.PrivateKey)
	if privateKey != "" && !strings.Contains(privateKey, "[") {
		encoding := Encoding(strings.ToLower(strings.TrimSpace(sources.Encoding)))
		if encoding == "" {
			encoding = EncodingBase58
		}
		return Credential{Kind: KindEncodedKey, Encoded: privateKey, Encoding: encoding}, nil
	}

	if privateKey != "" {
		raw, err := DecodeKeyArray([]byte(privateKey))
		if err != nil {
			return Credential{}, minterr.New(minterr.KindInvalidConfig, "resolve credential", err)
		}
		return Credential{Kind: KindRawKey, Raw: raw}, nil
	}

	if name := strings.TrimSpace(sources.SecretName); name != "" {
		if fetcher == nil {
			return Credential{}, minterr.Newf(minterr.KindInvalidConfig, "resolve credential", "no secret fetcher configured for %s", name)
		}
		payload, err := fetcher.Fetch(ctx, name)
		if err != nil {
			return Credential{}, minterr.New(minterr.KindAuth, "resolve credential", fmt.Errorf("failed to fetch secret: %w", err))
		}
		raw, err := DecodeKeyArray(payload)
		if err != nil {
			return Credential{}, minterr.New(minterr.KindInvalidConfig, "resolve credential", err)
		}
		return Credential{Kind: KindRawKey, Raw: raw}, nil
	}

	return Credential{}, minterr.Newf(minterr.KindInvalidConfig, "resolve credential", "no credential configured")
}

// DecodeKeyArray decodes a JSON array of byte values such as a solana-keygen keypair file.
func DecodeKeyArray(data []byte) ([]byte, error) {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode key array: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("key array is empty")
	}
	decoded := make([]byte, len(values))
	for index, value := range values {
		if value < 0 || value > 255 {
			return nil, fmt.Errorf("key array value %d at index %d is not a byte", value, index)
		}
		decoded[index] = byte(value)
	}
	return decoded, nil
}

func normalizeMnemonic(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

func decodeHex(value string) ([]byte, error) {
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex key: %w", err)
	}
	return decoded, nil
}
