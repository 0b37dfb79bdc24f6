package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
)

func newTestStore(t *testing.T, size int) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"images", "metadata"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	store, err := NewFileStore(FileStoreConfig{Dir: dir, Size: size})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store, dir
}

func writeItem(t *testing.T, dir string, id int, descriptor string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "images", fmt.Sprintf("%d.png", id)), []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata", fmt.Sprintf("%d.json", id)), []byte(descriptor), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
}

func TestNewFileStoreValidation(t *testing.T) {
	if _, err := NewFileStore(FileStoreConfig{Size: 1}); err == nil {
		t.Fatal("expected error for missing dir")
	}
	if _, err := NewFileStore(FileStoreConfig{Dir: "x"}); err == nil {
		t.Fatal("expected error for zero size")
	}
	store, err := NewFileStore(FileStoreConfig{Dir: "x", Size: 1, ImageExt: ".jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.ImageExt() != "jpg" {
		t.Fatalf("unexpected ext %q", store.ImageExt())
	}
}

func TestRangeValidationPrecedesStorageAccess(t *testing.T) {
	store, err := NewFileStore(FileStoreConfig{Dir: filepath.Join(t.TempDir(), "missing"), Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	metadata, _ := ParseMetadata([]byte(`{"name": "n"}`))

	for _, id := range []int{-1, 10, 11} {
		if _, err := store.ReadImage(ctx, id); !minterr.Is(err, minterr.KindOutOfRange) {
			t.Fatalf("ReadImage(%d): expected out of range, got %v", id, err)
		}
		if _, err := store.ReadMetadata(ctx, id); !minterr.Is(err, minterr.KindOutOfRange) {
			t.Fatalf("ReadMetadata(%d): expected out of range, got %v", id, err)
		}
		if err := store.WriteMetadata(ctx, id, metadata); !minterr.Is(err, minterr.KindOutOfRange) {
			t.Fatalf("WriteMetadata(%d): expected out of range, got %v", id, err)
		}
	}
	if _, err := store.ReadImage(ctx, 9); !minterr.Is(err, minterr.KindNotFound) {
		t.Fatalf("expected not found for id in range, got %v", err)
	}
}

func TestReadAndMalformedMetadata(t *testing.T) {
	store, dir := newTestStore(t, 3)
	writeItem(t, dir, 0, `{"name": "Arian #0", "image": "0.png"}`)
	writeItem(t, dir, 1, `{"image": "1.png"}`)
	writeItem(t, dir, 2, `not json`)
	ctx := context.Background()

	image, err := store.ReadImage(ctx, 0)
	if err != nil || string(image) != "png" {
		t.Fatalf("unexpected image %q err %v", image, err)
	}
	metadata, err := store.ReadMetadata(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metadata.Name() != "Arian #0" {
		t.Fatalf("unexpected name %q", metadata.Name())
	}
	for _, id := range []int{1, 2} {
		if _, err := store.ReadMetadata(ctx, id); !minterr.Is(err, minterr.KindMalformedMetadata) {
			t.Fatalf("id %d: expected malformed metadata, got %v", id, err)
		}
	}
}

func TestWriteMetadataRoundTrip(t *testing.T) {
	store, dir := newTestStore(t, 1)
	writeItem(t, dir, 0, sampleDescriptor)
	ctx := context.Background()

	metadata, err := store.ReadMetadata(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := metadata.SetImage("https://gateway.pinata.cloud/ipfs/Qm?ext=png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.WriteMetadata(ctx, 0, metadata); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reread, err := store.ReadMetadata(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reread.FileURI() != "https://gateway.pinata.cloud/ipfs/Qm?ext=png" {
		t.Fatalf("unexpected file uri %q", reread.FileURI())
	}
}

func TestWriteMetadataCrashBeforeCommitKeepsOldDescriptor(t *testing.T) {
	store, dir := newTestStore(t, 1)
	writeItem(t, dir, 0, sampleDescriptor)
	ctx := context.Background()

	crash := errors.New("power loss")
	store.writer.BeforeCommit = func(string) error { return crash }

	metadata, err := store.ReadMetadata(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := metadata.SetImage("ipfs://new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = store.WriteMetadata(ctx, 0, metadata)
	if !minterr.Is(err, minterr.KindStorage) || !errors.Is(err, crash) {
		t.Fatalf("expected storage error wrapping crash, got %v", err)
	}

	raw, err := store.ReadMetadataRaw(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != sampleDescriptor {
		t.Fatalf("expected old descriptor to survive, got %s", raw)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "metadata"))
	if len(entries) != 1 {
		t.Fatalf("expected no temp files, found %d entries", len(entries))
	}
}
