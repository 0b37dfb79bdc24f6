package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
)

type GCSStoreConfig struct {
	Bucket   string
	Prefix   string
	Size     int
	ImageExt string
}

// GCSStore keeps the asset layout in a Cloud Storage bucket. Descriptor
// replacement is conditioned on the generation that was read, so a concurrent
// writer causes a storage error instead of a lost update.
type GCSStore struct {
	bucket *storage.BucketHandle
	prefix string
	size   int
	ext    string
}

func NewGCSStore(client *storage.Client, config GCSStoreConfig) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(config.Bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if config.Size <= 0 {
		return nil, fmt.Errorf("collection size must be positive")
	}
	ext := strings.TrimPrefix(strings.TrimSpace(config.ImageExt), ".")
	if ext == "" {
		ext = "png"
	}
	return &GCSStore{
		bucket: client.Bucket(config.Bucket),
		prefix: strings.Trim(config.Prefix, "/"),
		size:   config.Size,
		ext:    ext,
	}, nil
}

func (s *GCSStore) Size() int {
	return s.size
}

func (s *GCSStore) ImageExt() string {
	return s.ext
}

func (s *GCSStore) objectName(kind string, name string) string {
	return path.Join(s.prefix, kind, name)
}

func (s *GCSStore) ReadImage(ctx context.Context, id int) ([]byte, error) {
	if err := checkRange("read image", id, s.size); err != nil {
		return nil, err
	}
	data, err := s.read(ctx, s.objectName("images", ImageName(id, s.ext)))
	if err != nil {
		return nil, classifyGCS("read image", id, err)
	}
	return data, nil
}

func (s *GCSStore) ReadMetadataRaw(ctx context.Context, id int) ([]byte, error) {
	if err := checkRange("read metadata", id, s.size); err != nil {
		return nil, err
	}
	data, err := s.read(ctx, s.objectName("metadata", MetadataName(id)))
	if err != nil {
		return nil, classifyGCS("read metadata", id, err)
	}
	return data, nil
}

func (s *GCSStore) ReadMetadata(ctx context.Context, id int) (*Metadata, error) {
	data, err := s.ReadMetadataRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeMetadata("read metadata", id, data)
}

func (s *GCSStore) WriteMetadata(ctx context.Context, id int, metadata *Metadata) error {
	if err := checkRange("write metadata", id, s.size); err != nil {
		return err
	}
	data, err := metadata.Bytes()
	if err != nil {
		return minterr.ForItem(minterr.KindMalformedMetadata, "write metadata", id, err)
	}

	object := s.bucket.Object(s.objectName("metadata", MetadataName(id)))
	conditions := storage.Conditions{DoesNotExist: true}
	attrs, err := object.Attrs(ctx)
	switch {
	case err == nil:
		conditions = storage.Conditions{GenerationMatch: attrs.Generation}
	case !errors.Is(err, storage.ErrObjectNotExist):
		return classifyGCS("write metadata", id, err)
	}

	writer := object.If(conditions).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return minterr.ForItem(minterr.KindStorage, "write metadata", id, err)
	}
	if err := writer.Close(); err != nil {
		return minterr.ForItem(minterr.KindStorage, "write metadata", id, err)
	}
	return nil
}

func (s *GCSStore) read(ctx context.Context, name string) ([]byte, error) {
	reader, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func classifyGCS(op string, id int, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return minterr.ForItem(minterr.KindNotFound, op, id, err)
	}
	return minterr.ForItem(minterr.KindStorage, op, id, err)
}
