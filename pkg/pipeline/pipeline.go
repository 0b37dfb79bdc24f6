package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/assets"
	"github.com/hashgraph-online/nft-minter-go/pkg/cursor"
	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/pinning"
	"github.com/rs/zerolog"
)

const (
	DefaultWindow        = 4
	DefaultRetries       = 2
	DefaultCallTimeout   = 2 * time.Minute
	DefaultNamePrefix    = "#"
	defaultRetryInterval = time.Second
)

type Config struct {
	Store   assets.Store
	Pinning pinning.Client
	// Ledger and Cursor are only needed by RunSequential.
	Ledger ledger.Client
	Cursor cursor.Cursor

	GatewayURL string
	GroupID    string

	// TargetMax is the exclusive upper id of the run; it may not exceed the
	// store size.
	TargetMax int
	Floor     int
	Window    int
	// Retries bounds repeated uploads after a transient failure in batched
	// mode. Zero uses DefaultRetries; negative disables retries.
	Retries       int
	RetryInterval time.Duration
	// CallTimeout bounds every external call. Zero uses DefaultCallTimeout;
	// negative disables the bound.
	CallTimeout time.Duration

	CollectionID string
	TreeID       string
	NamePrefix   string
	Symbol       string
	RoyaltyBps   uint16
	Verify       bool

	Logger       *zerolog.Logger
	Metrics      *Metrics
	OnTransition func(Item)
}

type Pipeline struct {
	store         assets.Store
	pinning       pinning.Client
	ledger        ledger.Client
	cursor        cursor.Cursor
	gatewayURL    string
	groupID       string
	targetMax     int
	floor         int
	window        int
	retries       int
	retryInterval time.Duration
	callTimeout   time.Duration
	collectionID  string
	treeID        string
	namePrefix    string
	symbol        string
	royaltyBps    uint16
	verify        bool
	logger        zerolog.Logger
	metrics       *Metrics
	onTransition  func(Item)
}

// New validates config and fills defaults.
func New(config Config) (*Pipeline, error) {
	var problems []error
	if config.Store == nil {
		problems = append(problems, fmt.Errorf("asset store is required"))
	}
	if config.Pinning == nil {
		problems = append(problems, fmt.Errorf("pinning client is required"))
	}
	if config.Store != nil && (config.TargetMax < 0 || config.TargetMax > config.Store.Size()) {
		problems = append(problems, fmt.Errorf("target max %d must be in [0, %d]", config.TargetMax, config.Store.Size()))
	}
	if config.Floor < 0 {
		problems = append(problems, fmt.Errorf("floor must not be negative"))
	}
	if config.Window < 0 {
		problems = append(problems, fmt.Errorf("window must not be negative"))
	}
	if len(problems) > 0 {
		return nil, minterr.New(minterr.KindInvalidConfig, "configure pipeline", errors.Join(problems...))
	}

	window := config.Window
	if window == 0 {
		window = DefaultWindow
	}
	retries := config.Retries
	switch {
	case retries == 0:
		retries = DefaultRetries
	case retries < 0:
		retries = 0
	}
	retryInterval := config.RetryInterval
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	callTimeout := config.CallTimeout
	switch {
	case callTimeout == 0:
		callTimeout = DefaultCallTimeout
	case callTimeout < 0:
		callTimeout = 0
	}
	namePrefix := config.NamePrefix
	if namePrefix == "" {
		namePrefix = DefaultNamePrefix
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Pipeline{
		store:         config.Store,
		pinning:       config.Pinning,
		ledger:        config.Ledger,
		cursor:        config.Cursor,
		gatewayURL:    config.GatewayURL,
		groupID:       config.GroupID,
		targetMax:     config.TargetMax,
		floor:         config.Floor,
		window:        window,
		retries:       retries,
		retryInterval: retryInterval,
		callTimeout:   callTimeout,
		collectionID:  config.CollectionID,
		treeID:        config.TreeID,
		namePrefix:    namePrefix,
		symbol:        config.Symbol,
		royaltyBps:    config.RoyaltyBps,
		verify:        config.Verify,
		logger:        logger,
		metrics:       config.Metrics,
		onTransition:  config.OnTransition,
	}, nil
}

func (p *Pipeline) itemName(id int) string {
	return p.namePrefix + strconv.Itoa(id)
}

func (p *Pipeline) transition(logger zerolog.Logger, item *Item, state State) {
	item.State = state
	event := logger.Debug()
	if state == StateFailed {
		event = logger.Error().Err(item.Err)
	}
	event.Int("id", item.ID).Str("state", string(state)).Msg("item transition")
	if p.onTransition != nil {
		p.onTransition(*item)
	}
}

// bounded runs fn under the per-call timeout. A call cut short by the
// deadline is reported as a transient network failure.
func bounded[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	value, err := fn(ctx)
	if err != nil {
		if _, ok := minterr.KindOf(err); !ok && ctx.Err() != nil {
			err = minterr.New(minterr.KindTransientNetwork, op, err)
		}
	}
	return value, err
}

// itemError attaches id to err unless it already names that item.
func itemError(err error, op string, id int) error {
	var existing *minterr.Error
	if errors.As(err, &existing) && existing.ID == id {
		return err
	}
	return minterr.WithItem(err, op, id)
}

// uploadFile sends one named blob and returns its content address.
func (p *Pipeline) uploadFile(ctx context.Context, name string, data []byte) (string, error) {
	address, err := bounded(ctx, p.callTimeout, "upload "+name, func(ctx context.Context) (string, error) {
		return p.pinning.Upload(ctx, name, data, p.groupID)
	})
	if err != nil {
		return "", err
	}
	p.metrics.upload()
	return address, nil
}

// publishImage uploads the image of id and points its descriptor at it.
func (p *Pipeline) publishImage(ctx context.Context, id int, metadata *assets.Metadata) error {
	image, err := p.store.ReadImage(ctx, id)
	if err != nil {
		return err
	}
	ext := p.store.ImageExt()
	address, err := p.uploadFile(ctx, assets.ImageName(id, ext), image)
	if err != nil {
		return err
	}
	if err := metadata.SetImage(pinning.GatewayURL(p.gatewayURL, address, ext)); err != nil {
		return minterr.ForItem(minterr.KindMalformedMetadata, "rewrite descriptor", id, err)
	}
	return p.store.WriteMetadata(ctx, id, metadata)
}

// publishDescriptor uploads the stored descriptor of id and returns the URI
// the ledger should reference.
func (p *Pipeline) publishDescriptor(ctx context.Context, id int) (string, error) {
	raw, err := p.store.ReadMetadataRaw(ctx, id)
	if err != nil {
		return "", err
	}
	address, err := p.uploadFile(ctx, assets.MetadataName(id), raw)
	if err != nil {
		return "", err
	}
	return pinning.GatewayURL(p.gatewayURL, address, ""), nil
}
