package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
)

type FileStoreConfig struct {
	Dir      string
	Size     int
	ImageExt string
}

type FileStore struct {
	dir    string
	size   int
	ext    string
	writer shared.AtomicWriter
}

func NewFileStore(config FileStoreConfig) (*FileStore, error) {
	if strings.TrimSpace(config.Dir) == "" {
		return nil, fmt.Errorf("assets directory is required")
	}
	if config.Size <= 0 {
		return nil, fmt.Errorf("collection size must be positive")
	}
	ext := strings.TrimPrefix(strings.TrimSpace(config.ImageExt), ".")
	if ext == "" {
		ext = "png"
	}
	return &FileStore{dir: config.Dir, size: config.Size, ext: ext}, nil
}

func (s *FileStore) Size() int {
	return s.size
}

func (s *FileStore) ImageExt() string {
	return s.ext
}

func (s *FileStore) imagePath(id int) string {
	return filepath.Join(s.dir, "images", ImageName(id, s.ext))
}

func (s *FileStore) metadataPath(id int) string {
	return filepath.Join(s.dir, "metadata", MetadataName(id))
}

func (s *FileStore) ReadImage(ctx context.Context, id int) ([]byte, error) {
	if err := checkRange("read image", id, s.size); err != nil {
		return nil, err
	}
	return readFile("read image", id, s.imagePath(id))
}

func (s *FileStore) ReadMetadataRaw(ctx context.Context, id int) ([]byte, error) {
	if err := checkRange("read metadata", id, s.size); err != nil {
		return nil, err
	}
	return readFile("read metadata", id, s.metadataPath(id))
}

func (s *FileStore) ReadMetadata(ctx context.Context, id int) (*Metadata, error) {
	data, err := s.ReadMetadataRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeMetadata("read metadata", id, data)
}

func (s *FileStore) WriteMetadata(ctx context.Context, id int, metadata *Metadata) error {
	if err := checkRange("write metadata", id, s.size); err != nil {
		return err
	}
	data, err := metadata.Bytes()
	if err != nil {
		return minterr.ForItem(minterr.KindMalformedMetadata, "write metadata", id, err)
	}
	if err := s.writer.WriteFile(s.metadataPath(id), data, 0o644); err != nil {
		return minterr.ForItem(minterr.KindStorage, "write metadata", id, err)
	}
	return nil
}

func readFile(op string, id int, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, minterr.ForItem(minterr.KindNotFound, op, id, err)
	}
	if err != nil {
		return nil, minterr.ForItem(minterr.KindStorage, op, id, err)
	}
	return data, nil
}
