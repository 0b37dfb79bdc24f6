package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
)

const (
	LedgerSolana = "solana"
	LedgerHedera = "hedera"

	PinningPinata    = "pinata"
	PinningInscriber = "inscriber"
)

const (
	DefaultCollectionSize = 10000
	DefaultCursorFile     = ".last_minted_id"
	DefaultAssetsDir      = "assets/nfts"
	DefaultImageExt       = "png"
	DefaultUploadWindow   = 4
	DefaultUploadRetries  = 2
	DefaultCallTimeout    = 2 * time.Minute
	DefaultNamePrefix     = "#"
	DefaultTreeMaxDepth   = 14
	DefaultTreeBufferSize = 64
	DefaultTreeCanopy     = 8
	DefaultGatewayURL     = "https://gateway.pinata.cloud"
)

type Config struct {
	Ledger string

	SolanaRPC       string
	HederaNetwork   string
	HederaAccountID string
	HederaMirrorURL string

	Mnemonic           string
	PrivateKey         string
	PrivateKeyEncoding string
	PrivateKeySecret   string

	Pinning          string
	PinataJWT        string
	PinataAPIURL     string
	GatewayURL       string
	GroupID          string
	PinningRPS       float64
	InscriberAuthURL string
	InscriberAPIURL  string

	RoyaltyBps     uint16
	CollectionID   string
	TreeID         string
	CollectionName string
	CollectionURI  string
	NamePrefix     string
	Symbol         string

	TargetMax      int
	CollectionSize int

	TreeMaxDepth      uint32
	TreeMaxBufferSize uint32
	TreeCanopyDepth   uint32
	TreePublic        bool

	AssetsDir    string
	AssetsBucket string
	ImageExt     string

	CursorFile string
	CursorDSN  string
	CursorName string

	UploadWindow  int
	UploadFloor   int
	UploadRetries int
	CallTimeout   time.Duration

	VerifyCollection bool

	LogLevel        string
	LogFormat       string
	MetricsTextfile string
}

// Load reads the configuration from the environment and the optional YAML file.
func Load() (Config, error) {
	shared.LoadDotEnv()

	fileValues, err := readYAMLFile(shared.FirstNonEmptyEnv("MINTER_CONFIG_FILE"))
	if err != nil {
		return Config{}, minterr.New(minterr.KindInvalidConfig, "load config", err)
	}

	return FromLookup(envLookup(fileValues))
}

// FromLookup builds a Config from an arbitrary key lookup.
func FromLookup(lookup func(key string) string) (Config, error) {
	p := &parser{lookup: lookup}

	cfg := Config{
		Ledger:             strings.ToLower(p.str(LedgerSolana, "LEDGER")),
		SolanaRPC:          p.str("", "SOLANA_RPC"),
		HederaNetwork:      p.str(shared.NetworkTestnet, "HEDERA_NETWORK"),
		HederaAccountID:    p.str("", "HEDERA_ACCOUNT_ID", "ACCOUNT_ID"),
		HederaMirrorURL:    p.str("", "HEDERA_MIRROR_URL"),
		Mnemonic:           p.str("", "MNEMONIC"),
		PrivateKey:         p.str("", "PRIVATE_KEY"),
		PrivateKeyEncoding: strings.ToLower(p.str("", "PRIVATE_KEY_ENCODING")),
		PrivateKeySecret:   p.str("", "PRIVATE_KEY_SECRET"),
		Pinning:            strings.ToLower(p.str(PinningPinata, "PINNING")),
		PinataJWT:          p.str("", "PINATA_JWT"),
		PinataAPIURL:       p.str("", "PINATA_API_URL"),
		GatewayURL:         p.str(DefaultGatewayURL, "GATEWAY_URL"),
		GroupID:            p.str("", "GROUP_ID"),
		PinningRPS:         p.float(0, "PINNING_RPS"),
		InscriberAuthURL:   p.str("", "INSCRIBER_AUTH_URL"),
		InscriberAPIURL:    p.str("", "INSCRIBER_API_URL"),
		CollectionID:       p.str("", "COLLECTION_MINT_ADDRESS", "COLLECTION_ID"),
		TreeID:             p.str("", "MERKLE_TREE_ADDRESS", "MERKEL_TREE_ADDRESS"),
		CollectionName:     p.str("", "COLLECTION_NAME"),
		CollectionURI:      p.str("", "COLLECTION_URI"),
		NamePrefix:         p.str(DefaultNamePrefix, "NFT_NAME_PREFIX"),
		Symbol:             p.str("", "NFT_SYMBOL"),
		CollectionSize:     p.integer(DefaultCollectionSize, "NFT_COLLECTION_SIZE"),
		TreeMaxDepth:       uint32(p.integer(DefaultTreeMaxDepth, "TREE_MAX_DEPTH")),
		TreeMaxBufferSize:  uint32(p.integer(DefaultTreeBufferSize, "TREE_MAX_BUFFER_SIZE")),
		TreeCanopyDepth:    uint32(p.integer(DefaultTreeCanopy, "TREE_CANOPY_DEPTH")),
		TreePublic:         p.boolean(false, "TREE_PUBLIC"),
		AssetsDir:          p.str(DefaultAssetsDir, "ASSETS_DIR"),
		AssetsBucket:       p.str("", "ASSETS_BUCKET"),
		ImageExt:           strings.TrimPrefix(p.str(DefaultImageExt, "IMAGE_EXT"), "."),
		CursorFile:         p.str(DefaultCursorFile, "CURSOR_FILE"),
		CursorDSN:          p.str("", "CURSOR_DSN"),
		CursorName:         p.str("default", "CURSOR_NAME"),
		UploadWindow:       p.integer(DefaultUploadWindow, "UPLOAD_WINDOW"),
		UploadFloor:        p.integer(0, "UPLOAD_FLOOR"),
		UploadRetries:      p.integer(DefaultUploadRetries, "UPLOAD_RETRIES"),
		CallTimeout:        p.duration(DefaultCallTimeout, "CALL_TIMEOUT"),
		VerifyCollection:   p.boolean(true, "VERIFY_COLLECTION"),
		LogLevel:           strings.ToLower(p.str("info", "LOG_LEVEL")),
		LogFormat:          strings.ToLower(p.str("console", "LOG_FORMAT")),
		MetricsTextfile:    p.str("", "METRICS_TEXTFILE"),
	}
	cfg.TargetMax = p.integer(cfg.CollectionSize, "NFT_MINTING_MAX_ID")
	cfg.RoyaltyBps = p.royalty()

	if cfg.PrivateKeyEncoding == "" {
		cfg.PrivateKeyEncoding = "base58"
		if cfg.Ledger == LedgerHedera {
			cfg.PrivateKeyEncoding = "der"
		}
	}

	p.check(cfg.Ledger == LedgerSolana || cfg.Ledger == LedgerHedera, "LEDGER must be %q or %q", LedgerSolana, LedgerHedera)
	p.check(cfg.Pinning == PinningPinata || cfg.Pinning == PinningInscriber, "PINNING must be %q or %q", PinningPinata, PinningInscriber)
	p.check(cfg.CollectionSize > 0, "NFT_COLLECTION_SIZE must be positive")
	p.check(cfg.TargetMax >= 0, "NFT_MINTING_MAX_ID must not be negative")
	p.check(cfg.TargetMax <= cfg.CollectionSize, "NFT_MINTING_MAX_ID (%d) exceeds NFT_COLLECTION_SIZE (%d)", cfg.TargetMax, cfg.CollectionSize)
	p.check(cfg.UploadWindow > 0, "UPLOAD_WINDOW must be positive")
	p.check(cfg.UploadFloor >= 0, "UPLOAD_FLOOR must not be negative")
	p.check(cfg.UploadRetries >= 0, "UPLOAD_RETRIES must not be negative")
	p.check(cfg.CallTimeout >= 0, "CALL_TIMEOUT must not be negative")
	p.check(cfg.TreeMaxDepth > 0 && cfg.TreeMaxDepth <= 30, "TREE_MAX_DEPTH must be between 1 and 30")
	p.check(cfg.TreeCanopyDepth < cfg.TreeMaxDepth, "TREE_CANOPY_DEPTH must be smaller than TREE_MAX_DEPTH")
	p.check(cfg.PinningRPS >= 0, "PINNING_RPS must not be negative")
	switch cfg.PrivateKeyEncoding {
	case "base58", "hex", "der":
	default:
		p.fail("PRIVATE_KEY_ENCODING must be base58, hex or der")
	}

	if err := p.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateSigner checks that some credential source is configured.
func (c Config) ValidateSigner() error {
	if c.Mnemonic == "" && c.PrivateKey == "" && c.PrivateKeySecret == "" {
		return minterr.Newf(minterr.KindInvalidConfig, "validate config", "one of MNEMONIC, PRIVATE_KEY or PRIVATE_KEY_SECRET is required")
	}
	if c.Ledger == LedgerHedera && c.HederaAccountID == "" {
		return minterr.Newf(minterr.KindInvalidConfig, "validate config", "HEDERA_ACCOUNT_ID is required for the hedera ledger")
	}
	return nil
}

// ValidatePinning checks the settings of the selected pinning backend.
func (c Config) ValidatePinning() error {
	switch c.Pinning {
	case PinningPinata:
		if c.PinataJWT == "" {
			return minterr.Newf(minterr.KindInvalidConfig, "validate config", "PINATA_JWT is required")
		}
	case PinningInscriber:
		if c.HederaAccountID == "" {
			return minterr.Newf(minterr.KindInvalidConfig, "validate config", "HEDERA_ACCOUNT_ID is required for inscription uploads")
		}
	}
	return nil
}

// ValidateMint checks the settings needed by the sequential mint entry points.
func (c Config) ValidateMint(compressed bool) error {
	if err := c.ValidateSigner(); err != nil {
		return err
	}
	if err := c.ValidatePinning(); err != nil {
		return err
	}
	if c.CollectionID == "" {
		return minterr.Newf(minterr.KindInvalidConfig, "validate config", "COLLECTION_MINT_ADDRESS is required")
	}
	if compressed && c.TreeID == "" {
		return minterr.Newf(minterr.KindInvalidConfig, "validate config", "MERKLE_TREE_ADDRESS is required for compressed minting")
	}
	return nil
}

// ValidateCollection checks the settings needed to create a collection.
func (c Config) ValidateCollection() error {
	if err := c.ValidateSigner(); err != nil {
		return err
	}
	if c.CollectionName == "" {
		return minterr.Newf(minterr.KindInvalidConfig, "validate config", "COLLECTION_NAME is required")
	}
	return nil
}

// TreeCapacity is the number of leaves the configured commitment tree holds.
func (c Config) TreeCapacity() uint64 {
	return uint64(1) << c.TreeMaxDepth
}

type parser struct {
	lookup   func(key string) string
	problems []error
}

func (p *parser) raw(keys ...string) (string, string) {
	for _, key := range keys {
		if value := strings.TrimSpace(p.lookup(key)); value != "" {
			return key, value
		}
	}
	return "", ""
}

func (p *parser) str(fallback string, keys ...string) string {
	if _, value := p.raw(keys...); value != "" {
		return value
	}
	return fallback
}

func (p *parser) integer(fallback int, keys ...string) int {
	key, value := p.raw(keys...)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		p.fail("%s must be an integer: %q", key, value)
		return fallback
	}
	return parsed
}

func (p *parser) float(fallback float64, keys ...string) float64 {
	key, value := p.raw(keys...)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail("%s must be a number: %q", key, value)
		return fallback
	}
	return parsed
}

func (p *parser) boolean(fallback bool, keys ...string) bool {
	key, value := p.raw(keys...)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		p.fail("%s must be a boolean: %q", key, value)
		return fallback
	}
	return parsed
}

func (p *parser) duration(fallback time.Duration, keys ...string) time.Duration {
	key, value := p.raw(keys...)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		p.fail("%s must be a duration: %q", key, value)
		return fallback
	}
	return parsed
}

// royalty prefers explicit basis points over a sale percentage; a percentage
// is rounded up to the next basis point.
func (p *parser) royalty() uint16 {
	if _, value := p.raw("SELLER_FEE_BASIS_POINTS"); value != "" {
		bps := p.integer(0, "SELLER_FEE_BASIS_POINTS")
		if bps < 0 || bps > 10000 {
			p.fail("SELLER_FEE_BASIS_POINTS must be between 0 and 10000")
			return 0
		}
		return uint16(bps)
	}
	percentage := p.float(0, "SALE_ROYALITY_PERCENTAGE", "SALE_ROYALTY_PERCENTAGE")
	if percentage < 0 || percentage > 100 {
		p.fail("SALE_ROYALITY_PERCENTAGE must be between 0 and 100")
		return 0
	}
	return uint16(math.Ceil(percentage * 100))
}

func (p *parser) check(ok bool, format string, args ...any) {
	if !ok {
		p.fail(format, args...)
	}
}

func (p *parser) fail(format string, args ...any) {
	p.problems = append(p.problems, fmt.Errorf(format, args...))
}

func (p *parser) err() error {
	if len(p.problems) == 0 {
		return nil
	}
	return minterr.New(minterr.KindInvalidConfig, "load config", errors.Join(p.problems...))
}
