package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/hashgraph-online/nft-minter-go/pkg/assets"
	"github.com/hashgraph-online/nft-minter-go/pkg/config"
	"github.com/hashgraph-online/nft-minter-go/pkg/credential"
	"github.com/hashgraph-online/nft-minter-go/pkg/cursor"
	"github.com/hashgraph-online/nft-minter-go/pkg/inscriber"
	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	hederaledger "github.com/hashgraph-online/nft-minter-go/pkg/ledger/hedera"
	solanaledger "github.com/hashgraph-online/nft-minter-go/pkg/ledger/solana"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/pinning"
	"github.com/hashgraph-online/nft-minter-go/pkg/pipeline"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

// Needs selects the components Build constructs.
type Needs uint8

const (
	NeedStore Needs = 1 << iota
	NeedCursor
	NeedPinning
	NeedLedger

	NeedAll = NeedStore | NeedCursor | NeedPinning | NeedLedger
)

type App struct {
	Config  config.Config
	Logger  zerolog.Logger
	Store   assets.Store
	Cursor  cursor.Cursor
	Pinning pinning.Client
	Ledger  ledger.Client
	Metrics *pipeline.Metrics

	// Secrets resolves PRIVATE_KEY_SECRET; nil uses Secret Manager.
	Secrets credential.SecretFetcher

	credential *credential.Credential
	closers    []func() error
}

// Build constructs the components selected by needs.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger, needs Needs) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: pipeline.NewMetrics()}
	if err := a.build(ctx, needs); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, needs Needs) error {
	if needs&NeedStore != 0 {
		if err := a.buildStore(ctx); err != nil {
			return err
		}
	}
	if needs&NeedCursor != 0 {
		if err := a.buildCursor(ctx); err != nil {
			return err
		}
	}
	if needs&NeedPinning != 0 {
		if err := a.buildPinning(ctx); err != nil {
			return err
		}
	}
	if needs&NeedLedger != 0 {
		if err := a.buildLedger(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases database and storage handles.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) buildStore(ctx context.Context) error {
	cfg := a.Config
	if cfg.AssetsBucket == "" {
		store, err := assets.NewFileStore(assets.FileStoreConfig{Dir: cfg.AssetsDir, Size: cfg.CollectionSize, ImageExt: cfg.ImageExt})
		if err != nil {
			return minterr.New(minterr.KindInvalidConfig, "open asset store", err)
		}
		a.Store = store
		return nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return minterr.New(minterr.KindStorage, "open asset bucket", err)
	}
	a.closers = append(a.closers, client.Close)
	store, err := assets.NewGCSStore(client, assets.GCSStoreConfig{
		Bucket:   cfg.AssetsBucket,
		Prefix:   cfg.AssetsDir,
		Size:     cfg.CollectionSize,
		ImageExt: cfg.ImageExt,
	})
	if err != nil {
		return minterr.New(minterr.KindInvalidConfig, "open asset bucket", err)
	}
	a.Store = store
	return nil
}

func (a *App) buildCursor(ctx context.Context) error {
	if a.Config.CursorDSN == "" {
		fileCursor, err := cursor.NewFileCursor(a.Config.CursorFile)
		if err != nil {
			return minterr.New(minterr.KindInvalidConfig, "open cursor", err)
		}
		a.Cursor = fileCursor
		return nil
	}
	pgCursor, err := cursor.OpenPostgres(ctx, a.Config.CursorDSN, a.Config.CursorName)
	if err != nil {
		if _, ok := minterr.KindOf(err); ok {
			return err
		}
		return minterr.New(minterr.KindStorage, "open cursor", err)
	}
	a.closers = append(a.closers, pgCursor.Close)
	a.Cursor = pgCursor
	return nil
}

func (a *App) buildPinning(ctx context.Context) error {
	cfg := a.Config
	if err := cfg.ValidatePinning(); err != nil {
		return err
	}
	switch cfg.Pinning {
	case config.PinningInscriber:
		key, err := a.hederaKey(ctx)
		if err != nil {
			return err
		}
		apiKey, err := inscriber.NewAuthClient(cfg.InscriberAuthURL, nil).Authenticate(ctx, cfg.HederaAccountID, key, cfg.HederaNetwork)
		if err != nil {
			return err
		}
		client, err := inscriber.NewClient(inscriber.Config{APIKey: apiKey, Network: cfg.HederaNetwork, BaseURL: cfg.InscriberAPIURL})
		if err != nil {
			return minterr.New(minterr.KindInvalidConfig, "configure inscriber", err)
		}
		uploader, err := inscriber.NewUploader(inscriber.UploaderConfig{
			Client:    client,
			Network:   cfg.HederaNetwork,
			AccountID: cfg.HederaAccountID,
			Key:       key,
			Logger:    &a.Logger,
		})
		if err != nil {
			return minterr.New(minterr.KindInvalidConfig, "configure inscriber", err)
		}
		a.Pinning = uploader
	default:
		client, err := pinning.NewPinataClient(pinning.PinataConfig{
			JWT:               cfg.PinataJWT,
			BaseURL:           cfg.PinataAPIURL,
			RequestsPerSecond: cfg.PinningRPS,
			Logger:            &a.Logger,
		})
		if err != nil {
			return minterr.New(minterr.KindInvalidConfig, "configure pinata", err)
		}
		a.Pinning = client
	}
	return nil
}

func (a *App) buildLedger(ctx context.Context) error {
	cfg := a.Config
	if err := cfg.ValidateSigner(); err != nil {
		return err
	}
	switch cfg.Ledger {
	case config.LedgerHedera:
		key, err := a.hederaKey(ctx)
		if err != nil {
			return err
		}
		client, err := hederaledger.NewClient(hederaledger.Config{
			Network:           cfg.HederaNetwork,
			OperatorAccountID: cfg.HederaAccountID,
			OperatorKey:       &key,
			MirrorBaseURL:     cfg.HederaMirrorURL,
			Logger:            &a.Logger,
		})
		if err != nil {
			return minterr.New(minterr.KindInvalidConfig, "configure hedera", err)
		}
		a.Ledger = client
	default:
		resolved, err := a.resolveCredential(ctx)
		if err != nil {
			return err
		}
		signer, err := credential.SolanaAccount(resolved)
		if err != nil {
			return err
		}
		client, err := solanaledger.NewClient(solanaledger.Config{Endpoint: cfg.SolanaRPC, Signer: signer, Logger: &a.Logger})
		if err != nil {
			return minterr.New(minterr.KindInvalidConfig, "configure solana", err)
		}
		a.Ledger = client
	}
	return nil
}

func (a *App) resolveCredential(ctx context.Context) (credential.Credential, error) {
	if a.credential != nil {
		return *a.credential, nil
	}
	var fetcher credential.SecretFetcher
	if a.Config.PrivateKeySecret != "" {
		fetcher = a.Secrets
		if fetcher == nil {
			fetcher = credential.SecretManager{}
		}
	}
	resolved, err := credential.Resolve(ctx, credential.Sources{
		Mnemonic:   a.Config.Mnemonic,
		PrivateKey: a.Config.PrivateKey,
		Encoding:   a.Config.PrivateKeyEncoding,
		SecretName: a.Config.PrivateKeySecret,
	}, fetcher)
	if err != nil {
		return credential.Credential{}, err
	}
	a.Logger.Debug().Str("credential", resolved.Kind.String()).Msg("resolved signer credential")
	a.credential = &resolved
	return resolved, nil
}

func (a *App) hederaKey(ctx context.Context) (hedera.PrivateKey, error) {
	resolved, err := a.resolveCredential(ctx)
	if err != nil {
		return hedera.PrivateKey{}, err
	}
	return credential.HederaKey(resolved)
}

// Pipeline configures a pipeline over the built components. compressed
// selects minting into the configured commitment tree.
func (a *App) Pipeline(compressed bool) (*pipeline.Pipeline, error) {
	cfg := a.Config
	callTimeout := cfg.CallTimeout
	if callTimeout == 0 {
		callTimeout = -1
	}
	treeID := ""
	if compressed {
		treeID = cfg.TreeID
	}
	return pipeline.New(pipeline.Config{
		Store:        a.Store,
		Pinning:      a.Pinning,
		Ledger:       a.Ledger,
		Cursor:       a.Cursor,
		GatewayURL:   cfg.GatewayURL,
		GroupID:      cfg.GroupID,
		TargetMax:    cfg.TargetMax,
		Floor:        cfg.UploadFloor,
		Window:       cfg.UploadWindow,
		Retries:      disabledIfZero(cfg.UploadRetries),
		CallTimeout:  callTimeout,
		CollectionID: cfg.CollectionID,
		TreeID:       treeID,
		NamePrefix:   cfg.NamePrefix,
		Symbol:       cfg.Symbol,
		RoyaltyBps:   cfg.RoyaltyBps,
		Verify:       cfg.VerifyCollection,
		Logger:       &a.Logger,
		Metrics:      a.Metrics,
	})
}

// FlushMetrics writes the run metrics when METRICS_TEXTFILE is set.
func (a *App) FlushMetrics() error {
	if a.Config.MetricsTextfile == "" {
		return nil
	}
	if err := a.Metrics.WriteTextfile(a.Config.MetricsTextfile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func disabledIfZero(value int) int {
	if value == 0 {
		return -1
	}
	return value
}

// Run loads the configuration, validates it, builds the components in needs
// and calls fn. It is the body of every entry point.
func Run(needs Needs, validate func(config.Config) error, fn func(ctx context.Context, a *App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if validate != nil {
		if err := validate(cfg); err != nil {
			return err
		}
	}
	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	a, err := Build(ctx, cfg, logger, needs)
	if err != nil {
		return err
	}
	defer a.Close()

	runErr := fn(ctx, a)
	if err := a.FlushMetrics(); err != nil {
		logger.Warn().Err(err).Msg("metrics not written")
	}
	return runErr
}
