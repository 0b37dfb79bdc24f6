package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/assets"
	"github.com/hashgraph-online/nft-minter-go/pkg/cursor"
	"github.com/hashgraph-online/nft-minter-go/pkg/ledger"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const testGateway = "https://gateway.example/ipfs"

type fakePinning struct {
	mu       sync.Mutex
	calls    []string
	attempts map[string]int
	data     map[string][]byte
	// fail returns the error for the given attempt (1-based) of name.
	fail func(name string, attempt int) error
}

func newFakePinning() *fakePinning {
	return &fakePinning{attempts: map[string]int{}, data: map[string][]byte{}}
}

func (p *fakePinning) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	p.mu.Lock()
	p.attempts[name]++
	attempt := p.attempts[name]
	p.calls = append(p.calls, name)
	fail := p.fail
	p.mu.Unlock()

	if fail != nil {
		if err := fail(name, attempt); err != nil {
			return "", err
		}
	}
	p.mu.Lock()
	p.data[name] = append([]byte(nil), data...)
	p.mu.Unlock()
	return "cid-" + name, nil
}

func (p *fakePinning) callIDs() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int, 0, len(p.calls))
	for _, name := range p.calls {
		id, _ := strconv.Atoi(strings.SplitN(name, ".", 2)[0])
		ids = append(ids, id)
	}
	return ids
}

func (p *fakePinning) attemptsFor(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts[name]
}

type fakeLedger struct {
	mu          sync.Mutex
	minted      []int
	requests    []ledger.MintRequest
	failOn      map[int]error
	verifyCalls map[string]int
	verified    map[string]bool
	verifyTxs   int
	selfVerify  bool
	block       bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{failOn: map[int]error{}, verifyCalls: map[string]int{}, verified: map[string]bool{}}
}

func (l *fakeLedger) Address() string { return "signer" }

func (l *fakeLedger) CreateCollection(context.Context, ledger.CollectionSpec) (string, error) {
	return "collection", nil
}

func (l *fakeLedger) CreateCommitmentTree(context.Context, ledger.TreeSpec) (string, error) {
	return "tree", nil
}

func (l *fakeLedger) Mint(ctx context.Context, request ledger.MintRequest) (ledger.MintResult, error) {
	if l.block {
		<-ctx.Done()
		return ledger.MintResult{}, ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minted = append(l.minted, request.ItemID)
	l.requests = append(l.requests, request)
	if err := l.failOn[request.ItemID]; err != nil {
		return ledger.MintResult{}, err
	}
	return ledger.MintResult{
		ItemID:    request.ItemID,
		TokenID:   fmt.Sprintf("%s/%d", request.CollectionID, request.ItemID+1),
		Signature: fmt.Sprintf("sig-%d", request.ItemID),
		Verified:  l.selfVerify,
	}, nil
}

func (l *fakeLedger) VerifyMembership(_ context.Context, tokenID string, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verifyCalls[tokenID]++
	if l.verified[tokenID] {
		return nil
	}
	l.verified[tokenID] = true
	l.verifyTxs++
	return nil
}

func writeFixture(t *testing.T, size int) (*assets.FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"images", "metadata"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	for id := 0; id < size; id++ {
		descriptor := fmt.Sprintf(`{"name":"Item %d","image":"%d.png","attributes":[{"trait_type":"rank","value":%d}],"properties":{"files":[{"uri":"%d.png","type":"image/png"}]}}`, id, id, id, id)
		if err := os.WriteFile(filepath.Join(dir, "images", fmt.Sprintf("%d.png", id)), []byte(fmt.Sprintf("png-%d", id)), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "metadata", fmt.Sprintf("%d.json", id)), []byte(descriptor), 0o644); err != nil {
			t.Fatalf("write metadata: %v", err)
		}
	}
	store, err := assets.NewFileStore(assets.FileStoreConfig{Dir: dir, Size: size})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store, dir
}

func newTestCursor(t *testing.T) *cursor.FileCursor {
	t.Helper()
	c, err := cursor.NewFileCursor(filepath.Join(t.TempDir(), ".last_minted_id"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func lastCursor(t *testing.T, c cursor.Cursor) (int, bool) {
	t.Helper()
	fresh, err := cursor.NewFileCursor(c.(*cursor.FileCursor).Path())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, ok, err := fresh.Load(context.Background())
	if err != nil {
		t.Fatalf("load cursor: %v", err)
	}
	return id, ok
}

func TestNewValidation(t *testing.T) {
	store, _ := writeFixture(t, 3)
	_, err := New(Config{Store: store, Pinning: newFakePinning(), TargetMax: 4})
	if !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected invalid config for target above size, got %v", err)
	}
	if _, err := New(Config{TargetMax: 1}); !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected invalid config for missing collaborators, got %v", err)
	}

	p, err := New(Config{Store: store, Pinning: newFakePinning(), TargetMax: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.window != DefaultWindow || p.retries != DefaultRetries || p.callTimeout != DefaultCallTimeout || p.namePrefix != "#" {
		t.Fatalf("defaults not applied: %+v", p)
	}
	if _, err := p.RunSequential(context.Background()); !minterr.Is(err, minterr.KindInvalidConfig) {
		t.Fatalf("expected sequential run without ledger to fail, got %v", err)
	}
}

func TestRunSequentialEndToEnd(t *testing.T) {
	store, _ := writeFixture(t, 3)
	pin := newFakePinning()
	chain := newFakeLedger()
	mintCursor := newTestCursor(t)

	var mu sync.Mutex
	var states []State
	p, err := New(Config{
		Store:        store,
		Pinning:      pin,
		Ledger:       chain,
		Cursor:       mintCursor,
		GatewayURL:   testGateway,
		TargetMax:    3,
		CollectionID: "0.0.77",
		Symbol:       "TST",
		RoyaltyBps:   500,
		Verify:       true,
		OnTransition: func(item Item) {
			mu.Lock()
			defer mu.Unlock()
			if item.ID == 0 {
				states = append(states, item.State)
			}
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := p.RunSequential(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Start != 0 || report.Next != 3 || len(report.Results) != 3 || report.RunID == "" {
		t.Fatalf("unexpected report: %+v", report)
	}
	for i, result := range report.Results {
		if result.ItemID != i || !result.Verified {
			t.Fatalf("unexpected result %d: %+v", i, result)
		}
	}
	if id, ok := lastCursor(t, mintCursor); !ok || id != 2 {
		t.Fatalf("expected cursor 2, got %d (%v)", id, ok)
	}

	request := chain.requests[1]
	if request.Name != "#1" || request.Symbol != "TST" || request.RoyaltyBps != 500 || request.CollectionID != "0.0.77" {
		t.Fatalf("unexpected mint request: %+v", request)
	}
	if request.URI != testGateway+"/cid-1.json" {
		t.Fatalf("unexpected metadata URI %q", request.URI)
	}

	metadata, err := store.ReadMetadata(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantImage := testGateway + "/cid-1.png?ext=png"
	if metadata.Image() != wantImage || metadata.FileURI() != wantImage {
		t.Fatalf("descriptor not rewritten: image=%q file=%q", metadata.Image(), metadata.FileURI())
	}
	if !strings.Contains(string(pin.data["1.json"]), wantImage) {
		t.Fatalf("uploaded descriptor does not reference the image: %s", pin.data["1.json"])
	}
	if !strings.Contains(string(pin.data["1.json"]), `"trait_type": "rank"`) {
		t.Fatalf("uploaded descriptor lost attributes: %s", pin.data["1.json"])
	}

	want := []State{StateUploading, StateUploaded, StateMinting, StateMinted, StateVerified, StateRecorded}
	if fmt.Sprint(states) != fmt.Sprint(want) {
		t.Fatalf("unexpected transitions %v", states)
	}
}

func TestRunSequentialResumesAfterCursor(t *testing.T) {
	store, _ := writeFixture(t, 6)
	pin := newFakePinning()
	chain := newFakeLedger()
	mintCursor := newTestCursor(t)
	if err := mintCursor.Advance(context.Background(), 2); err != nil {
		t.Fatalf("seed cursor: %v", err)
	}

	p, err := New(Config{Store: store, Pinning: pin, Ledger: chain, Cursor: mintCursor, GatewayURL: testGateway, TargetMax: 5, CollectionID: "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := p.RunSequential(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(chain.minted) != "[3 4]" {
		t.Fatalf("expected ids 3 and 4 minted, got %v", chain.minted)
	}
	if report.Start != 3 || report.Next != 5 {
		t.Fatalf("unexpected report: %+v", report)
	}
	for _, id := range pin.callIDs() {
		if id < 3 || id >= 5 {
			t.Fatalf("uploaded id %d outside the remaining range", id)
		}
	}
	if id, _ := lastCursor(t, mintCursor); id != 4 {
		t.Fatalf("expected cursor 4, got %d", id)
	}

	again, err := p.RunSequential(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again.Results) != 0 || len(chain.minted) != 2 {
		t.Fatalf("expected a finished run to do nothing, got %+v", again)
	}
}

func TestRunSequentialFailsFast(t *testing.T) {
	store, _ := writeFixture(t, 5)
	pin := newFakePinning()
	chain := newFakeLedger()
	chain.failOn[2] = minterr.Newf(minterr.KindRejectedByLedger, "mint", "simulation failed")
	mintCursor := newTestCursor(t)

	var mu sync.Mutex
	var failed []Item
	p, err := New(Config{
		Store: store, Pinning: pin, Ledger: chain, Cursor: mintCursor,
		GatewayURL: testGateway, TargetMax: 5, CollectionID: "c",
		OnTransition: func(item Item) {
			if item.State == StateFailed {
				mu.Lock()
				failed = append(failed, item)
				mu.Unlock()
			}
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := p.RunSequential(context.Background())
	if !minterr.Is(err, minterr.KindRejectedByLedger) {
		t.Fatalf("expected rejected by ledger, got %v", err)
	}
	var mintErr *minterr.Error
	if !errors.As(err, &mintErr) || mintErr.ID != 2 {
		t.Fatalf("expected error for id 2, got %v", err)
	}
	if report.Next != 2 || len(report.Results) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if fmt.Sprint(chain.minted) != "[0 1 2]" {
		t.Fatalf("expected no attempt past id 2, got %v", chain.minted)
	}
	for _, id := range pin.callIDs() {
		if id > 2 {
			t.Fatalf("uploaded id %d after the failure", id)
		}
	}
	if id, _ := lastCursor(t, mintCursor); id != 1 {
		t.Fatalf("expected cursor 1, got %d", id)
	}
	if len(failed) != 1 || failed[0].ID != 2 || failed[0].Err == nil {
		t.Fatalf("unexpected failed transitions: %+v", failed)
	}
}

func TestRunSequentialDoesNotRetryUploads(t *testing.T) {
	store, _ := writeFixture(t, 2)
	pin := newFakePinning()
	pin.fail = func(name string, _ int) error {
		if name == "0.png" {
			return minterr.Newf(minterr.KindTransientNetwork, "upload", "status 503")
		}
		return nil
	}
	chain := newFakeLedger()
	p, err := New(Config{Store: store, Pinning: pin, Ledger: chain, Cursor: newTestCursor(t), TargetMax: 2, CollectionID: "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.RunSequential(context.Background())
	if !minterr.Is(err, minterr.KindTransientNetwork) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if pin.attemptsFor("0.png") != 1 || len(chain.minted) != 0 {
		t.Fatalf("expected a single attempt and no mint, got %d attempts, minted %v", pin.attemptsFor("0.png"), chain.minted)
	}
}

func TestRunSequentialSkipsUploadedImages(t *testing.T) {
	store, _ := writeFixture(t, 1)
	metadata, err := store.ReadMetadata(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := metadata.SetImage("ipfs://already-there"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.WriteMetadata(context.Background(), 0, metadata); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pin := newFakePinning()
	p, err := New(Config{Store: store, Pinning: pin, Ledger: newFakeLedger(), Cursor: newTestCursor(t), TargetMax: 1, CollectionID: "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.RunSequential(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(pin.calls) != "[0.json]" {
		t.Fatalf("expected only the descriptor upload, got %v", pin.calls)
	}
}

func TestVerificationIsIdempotentAndSkippedForSelfVerifiedMints(t *testing.T) {
	chain := newFakeLedger()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := chain.VerifyMembership(ctx, "c/1", "c"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if chain.verifyTxs != 1 {
		t.Fatalf("expected one verification transaction, got %d", chain.verifyTxs)
	}

	store, _ := writeFixture(t, 2)
	chain = newFakeLedger()
	chain.selfVerify = true
	p, err := New(Config{Store: store, Pinning: newFakePinning(), Ledger: chain, Cursor: newTestCursor(t), TargetMax: 2, CollectionID: "c", TreeID: "tree", Verify: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.RunSequential(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain.verifyCalls) != 0 {
		t.Fatalf("expected no verification calls, got %v", chain.verifyCalls)
	}
	if chain.requests[0].TreeID != "tree" {
		t.Fatalf("expected tree id on the request, got %+v", chain.requests[0])
	}
}

func TestRunSequentialBoundsLedgerCalls(t *testing.T) {
	store, _ := writeFixture(t, 1)
	chain := newFakeLedger()
	chain.block = true
	mintCursor := newTestCursor(t)
	p, err := New(Config{Store: store, Pinning: newFakePinning(), Ledger: chain, Cursor: mintCursor, TargetMax: 1, CollectionID: "c", CallTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.RunSequential(context.Background())
	if !minterr.Is(err, minterr.KindTransientNetwork) {
		t.Fatalf("expected a timed out mint to be transient, got %v", err)
	}
	if _, ok := lastCursor(t, mintCursor); ok {
		t.Fatal("cursor must not advance after a timeout")
	}
}

func TestWindows(t *testing.T) {
	got := fmt.Sprint(Windows(0, 10, 4))
	if got != "[[0 1 2 3] [4 5 6 7] [8 9]]" {
		t.Fatalf("unexpected windows %s", got)
	}
	if got := fmt.Sprint(Windows(3, 6, 4)); got != "[[3 4 5]]" {
		t.Fatalf("unexpected windows %s", got)
	}
	if len(Windows(5, 5, 4)) != 0 {
		t.Fatal("expected no windows for an empty range")
	}
}

func TestRunBatchedUploadWindowOrdering(t *testing.T) {
	store, _ := writeFixture(t, 10)
	pin := newFakePinning()
	metrics := NewMetrics()
	p, err := New(Config{Store: store, Pinning: pin, GatewayURL: testGateway, TargetMax: 10, Window: 4, Metrics: metrics})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := p.RunBatchedUpload(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Windows != 3 || report.Done.Count() != 10 || report.Contiguous != 9 {
		t.Fatalf("unexpected report: windows=%d done=%d contiguous=%d", report.Windows, report.Done.Count(), report.Contiguous)
	}

	previous := 0
	for _, id := range pin.callIDs() {
		window := id / 4
		if window < previous {
			t.Fatalf("id %d uploaded after window %d started: %v", id, previous, pin.callIDs())
		}
		previous = window
	}
	if got := testutil.ToFloat64(metrics.uploads); got != 20 {
		t.Fatalf("expected 20 uploads, got %v", got)
	}

	metadata, err := store.ReadMetadata(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metadata.Image() != testGateway+"/cid-9.png?ext=png" {
		t.Fatalf("descriptor not rewritten: %q", metadata.Image())
	}
}

func TestRunBatchedUploadHonoursFloor(t *testing.T) {
	store, _ := writeFixture(t, 10)
	pin := newFakePinning()
	p, err := New(Config{Store: store, Pinning: pin, TargetMax: 7, Floor: 5, Window: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := p.RunBatchedUpload(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Windows != 1 || report.Contiguous != 6 || report.Done.Has(4) {
		t.Fatalf("unexpected report: windows=%d contiguous=%d", report.Windows, report.Contiguous)
	}
}

func TestRunBatchedUploadStopsAfterFailedWindow(t *testing.T) {
	store, _ := writeFixture(t, 10)
	pin := newFakePinning()
	pin.fail = func(name string, _ int) error {
		if name == "5.png" {
			return minterr.Newf(minterr.KindAuth, "upload", "status 401")
		}
		return nil
	}
	metrics := NewMetrics()
	p, err := New(Config{Store: store, Pinning: pin, TargetMax: 10, Window: 4, RetryInterval: time.Millisecond, Metrics: metrics})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := p.RunBatchedUpload(context.Background())
	if !minterr.Is(err, minterr.KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	var mintErr *minterr.Error
	if !errors.As(err, &mintErr) || mintErr.ID != 5 {
		t.Fatalf("expected error for id 5, got %v", err)
	}
	if pin.attemptsFor("5.png") != 1 {
		t.Fatalf("auth errors must not be retried, got %d attempts", pin.attemptsFor("5.png"))
	}
	for _, id := range pin.callIDs() {
		if id >= 8 {
			t.Fatalf("window after the failure started: %v", pin.callIDs())
		}
	}
	for _, id := range []int{4, 6, 7} {
		if !report.Done.Has(id) {
			t.Fatalf("expected id %d of the failed window to drain", id)
		}
	}
	if report.Windows != 2 || report.Contiguous != 4 {
		t.Fatalf("unexpected report: windows=%d contiguous=%d", report.Windows, report.Contiguous)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues(string(minterr.KindAuth))); got != 1 {
		t.Fatalf("expected one auth failure, got %v", got)
	}
}

func TestRunBatchedUploadRetriesTransientFailures(t *testing.T) {
	store, _ := writeFixture(t, 4)
	pin := newFakePinning()
	pin.fail = func(name string, attempt int) error {
		if name == "3.png" && attempt == 1 {
			return minterr.Newf(minterr.KindTransientNetwork, "upload", "status 429")
		}
		return nil
	}
	metrics := NewMetrics()
	p, err := New(Config{Store: store, Pinning: pin, TargetMax: 4, RetryInterval: time.Millisecond, Metrics: metrics})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.RunBatchedUpload(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pin.attemptsFor("3.png") != 2 {
		t.Fatalf("expected one retry, got %d attempts", pin.attemptsFor("3.png"))
	}
	if got := testutil.ToFloat64(metrics.retries); got != 1 {
		t.Fatalf("expected retry metric 1, got %v", got)
	}
}

func TestRunBatchedUploadGivesUpAfterRetries(t *testing.T) {
	store, _ := writeFixture(t, 1)
	pin := newFakePinning()
	pin.fail = func(string, int) error {
		return minterr.Newf(minterr.KindTransientNetwork, "upload", "status 503")
	}
	p, err := New(Config{Store: store, Pinning: pin, TargetMax: 1, Retries: 2, RetryInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := p.RunBatchedUpload(context.Background())
	if !minterr.Is(err, minterr.KindTransientNetwork) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if pin.attemptsFor("0.png") != 3 {
		t.Fatalf("expected three attempts, got %d", pin.attemptsFor("0.png"))
	}
	if report.Contiguous != -1 {
		t.Fatalf("expected no contiguous progress, got %d", report.Contiguous)
	}
}

func TestMetricsTextfile(t *testing.T) {
	metrics := NewMetrics()
	metrics.mint(true)
	metrics.recorded(7)
	metrics.failure(errors.New("plain"))
	path := filepath.Join(t.TempDir(), "minter.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`nftminter_mints_total{compressed="true"} 1`, "nftminter_last_recorded_id 7", `nftminter_failures_total{kind="unknown"} 1`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("textfile missing %q:\n%s", want, data)
		}
	}
	var nilMetrics *Metrics
	nilMetrics.upload()
}
