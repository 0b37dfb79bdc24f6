package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/hashgraph-online/nft-minter-go/pkg/config"
	"github.com/hashgraph-online/nft-minter-go/pkg/cursor"
	"github.com/hashgraph-online/nft-minter-go/pkg/inscriber"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/pinning"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

type stubSecrets struct {
	payload []byte
	names   []string
}

func (s *stubSecrets) Fetch(_ context.Context, name string) ([]byte, error) {
	s.names = append(s.names, name)
	return s.payload, nil
}

func loadConfig(t *testing.T, values map[string]string) config.Config {
	t.Helper()
	cfg, err := config.FromLookup(func(key string) string { return values[key] })
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}
	return cfg
}

func seedArray(seed []byte) string {
	values := make([]int, len(seed))
	for i, b := range seed {
		values[i] = int(b)
	}
	encoded, _ := json.Marshal(values)
	return string(encoded)
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	logger, err := NewLogger("warn", "json", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info().Msg("hidden")
	logger.Warn().Int("id", 3).Msg("shown")
	if strings.Contains(out.String(), "hidden") || !strings.Contains(out.String(), `"id":3`) {
		t.Fatalf("unexpected log output %q", out.String())
	}

	if _, err := NewLogger("loud", "json", &out); !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected invalid level to fail, got %v", err)
	}
	if _, err := NewLogger("info", "xml", &out); !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected invalid format to fail, got %v", err)
	}
}

func TestBuildSolanaWithFileBackends(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)
	dir := t.TempDir()
	cfg := loadConfig(t, map[string]string{
		"PRIVATE_KEY":             seedArray(seed),
		"PINATA_JWT":              "jwt",
		"ASSETS_DIR":              dir,
		"CURSOR_FILE":             filepath.Join(dir, ".last_minted_id"),
		"NFT_COLLECTION_SIZE":     "10",
		"NFT_MINTING_MAX_ID":      "5",
		"COLLECTION_MINT_ADDRESS": "collection",
		"MERKLE_TREE_ADDRESS":     "tree",
		"CALL_TIMEOUT":            "0",
	})

	a, err := Build(context.Background(), cfg, zerolog.Nop(), NeedAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	account, err := types.AccountFromSeed(seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Ledger.Address() != account.PublicKey.ToBase58() {
		t.Fatalf("unexpected signer %s", a.Ledger.Address())
	}
	if _, ok := a.Pinning.(*pinning.PinataClient); !ok {
		t.Fatalf("expected pinata client, got %T", a.Pinning)
	}
	if _, ok := a.Cursor.(*cursor.FileCursor); !ok {
		t.Fatalf("expected file cursor, got %T", a.Cursor)
	}
	if a.Store.Size() != 10 {
		t.Fatalf("unexpected store size %d", a.Store.Size())
	}
	if _, err := a.Pipeline(true); err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}
}

func TestBuildReadsSecretOnce(t *testing.T) {
	seed := bytes.Repeat([]byte{9}, 32)
	cfg := loadConfig(t, map[string]string{
		"PRIVATE_KEY_SECRET": "projects/p/secrets/minter/versions/latest",
	})
	secrets := &stubSecrets{payload: []byte(seedArray(seed))}
	a := &App{Config: cfg, Logger: zerolog.Nop(), Secrets: secrets}
	if err := a.build(context.Background(), NeedLedger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.resolveCredential(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(secrets.names) != 1 || secrets.names[0] != "projects/p/secrets/minter/versions/latest" {
		t.Fatalf("unexpected secret reads %v", secrets.names)
	}
}

func TestBuildRequiresCredentialForLedger(t *testing.T) {
	cfg := loadConfig(t, nil)
	if _, err := Build(context.Background(), cfg, zerolog.Nop(), NeedLedger); !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if _, err := Build(context.Background(), cfg, zerolog.Nop(), NeedPinning); !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected missing JWT to fail, got %v", err)
	}
}

func TestBuildInscriberPinning(t *testing.T) {
	key, err := hedera.PrivateKeyGenerateEd25519()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/request-signature":
			_, _ = w.Write([]byte(`{"message":"sign me"}`))
		case "/api/auth/authenticate":
			_, _ = w.Write([]byte(`{"apiKey":"api-key","user":{"sessionToken":"session"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := loadConfig(t, map[string]string{
		"LEDGER":             "hedera",
		"PINNING":            "inscriber",
		"HEDERA_ACCOUNT_ID":  "0.0.1234",
		"PRIVATE_KEY":        key.String(),
		"INSCRIBER_AUTH_URL": server.URL,
	})
	a, err := Build(context.Background(), cfg, zerolog.Nop(), NeedPinning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := a.Pinning.(*inscriber.Uploader); !ok {
		t.Fatalf("expected inscriber uploader, got %T", a.Pinning)
	}
}

func TestFlushMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minter.prom")
	cfg := loadConfig(t, map[string]string{"METRICS_TEXTFILE": path})
	a, err := Build(context.Background(), cfg, zerolog.Nop(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.FlushMetrics(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
