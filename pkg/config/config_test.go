package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
)

func lookupFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ledger != LedgerSolana || cfg.Pinning != PinningPinata {
		t.Fatalf("unexpected backends %q %q", cfg.Ledger, cfg.Pinning)
	}
	if cfg.TargetMax != DefaultCollectionSize || cfg.CollectionSize != DefaultCollectionSize {
		t.Fatalf("unexpected sizes %d %d", cfg.TargetMax, cfg.CollectionSize)
	}
	if cfg.CursorFile != ".last_minted_id" {
		t.Fatalf("unexpected cursor file %q", cfg.CursorFile)
	}
	if cfg.UploadWindow != 4 || cfg.CallTimeout != 2*time.Minute {
		t.Fatalf("unexpected upload settings %d %s", cfg.UploadWindow, cfg.CallTimeout)
	}
	if cfg.TreeMaxDepth != 14 || cfg.TreeMaxBufferSize != 64 || cfg.TreeCanopyDepth != 8 {
		t.Fatalf("unexpected tree params %+v", cfg)
	}
	if cfg.TreeCapacity() != 16384 {
		t.Fatalf("unexpected capacity %d", cfg.TreeCapacity())
	}
	if cfg.PrivateKeyEncoding != "base58" || !cfg.VerifyCollection {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestFromLookupLegacyKeys(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"MERKEL_TREE_ADDRESS":      "tree111",
		"COLLECTION_MINT_ADDRESS":  "coll111",
		"NFT_MINTING_MAX_ID":       "250",
		"SALE_ROYALITY_PERCENTAGE": "5.001",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TreeID != "tree111" || cfg.CollectionID != "coll111" {
		t.Fatalf("unexpected ids %q %q", cfg.TreeID, cfg.CollectionID)
	}
	if cfg.TargetMax != 250 {
		t.Fatalf("expected 250, got %d", cfg.TargetMax)
	}
	if cfg.RoyaltyBps != 501 {
		t.Fatalf("expected royalty rounded up to 501, got %d", cfg.RoyaltyBps)
	}
}

func TestBasisPointsWinOverPercentage(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"SELLER_FEE_BASIS_POINTS":  "250",
		"SALE_ROYALITY_PERCENTAGE": "10",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RoyaltyBps != 250 {
		t.Fatalf("expected 250, got %d", cfg.RoyaltyBps)
	}
}

func TestHederaDefaultsToDEREncoding(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"LEDGER": "Hedera"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ledger != LedgerHedera || cfg.PrivateKeyEncoding != "der" {
		t.Fatalf("unexpected %q %q", cfg.Ledger, cfg.PrivateKeyEncoding)
	}
}

func TestFromLookupReportsEveryProblem(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{
		"LEDGER":              "ethereum",
		"UPLOAD_WINDOW":       "zero",
		"CALL_TIMEOUT":        "soon",
		"NFT_COLLECTION_SIZE": "10",
		"NFT_MINTING_MAX_ID":  "11",
	}))
	if err == nil {
		t.Fatal("expected error")
	}
	if !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected invalid config kind, got %v", err)
	}
	for _, want := range []string{"LEDGER", "UPLOAD_WINDOW", "CALL_TIMEOUT", "NFT_MINTING_MAX_ID"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidateMint(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"PRIVATE_KEY": "abc",
		"PINATA_JWT":  "jwt",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ValidateMint(false); err == nil {
		t.Fatal("expected missing collection error")
	}
	cfg.CollectionID = "coll"
	if err := cfg.ValidateMint(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ValidateMint(true); err == nil {
		t.Fatal("expected missing tree error")
	}
	cfg.PinataJWT = ""
	if err := cfg.ValidateMint(false); !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestValidateSignerHedera(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"LEDGER": "hedera", "PRIVATE_KEY": "k"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ValidateSigner(); err == nil {
		t.Fatal("expected account id to be required")
	}
}

func TestParseYAML(t *testing.T) {
	values, err := parseYAML([]byte("ledger: hedera\nUPLOAD_WINDOW: 8\nVERIFY_COLLECTION: false\nEMPTY:\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["LEDGER"] != "hedera" || values["UPLOAD_WINDOW"] != "8" || values["VERIFY_COLLECTION"] != "false" {
		t.Fatalf("unexpected values %#v", values)
	}
	if _, ok := values["EMPTY"]; ok {
		t.Fatal("expected null values to be skipped")
	}

	if _, err := parseYAML([]byte("NESTED:\n  a: 1\n")); err == nil {
		t.Fatal("expected error for nested value")
	}
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minter.yaml")
	if err := os.WriteFile(path, []byte("UPLOAD_WINDOW: 8\nNFT_SYMBOL: FILE\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MINTER_CONFIG_FILE", path)
	t.Setenv("NFT_SYMBOL", "ENV")
	t.Setenv("UPLOAD_WINDOW", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UploadWindow != 8 {
		t.Fatalf("expected window from file, got %d", cfg.UploadWindow)
	}
	if cfg.Symbol != "ENV" {
		t.Fatalf("expected env to win, got %q", cfg.Symbol)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("MINTER_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}
