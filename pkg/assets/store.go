package assets

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
)

// Store gives access to the images and descriptors of a fixed-size collection.
type Store interface {
	Size() int
	ImageExt() string
	ReadImage(ctx context.Context, id int) ([]byte, error)
	ReadMetadata(ctx context.Context, id int) (*Metadata, error)
	ReadMetadataRaw(ctx context.Context, id int) ([]byte, error)
	WriteMetadata(ctx context.Context, id int, metadata *Metadata) error
}

// ImageName is the upload name of an item's image.
func ImageName(id int, ext string) string {
	return strconv.Itoa(id) + "." + ext
}

// MetadataName is the upload name of an item's descriptor.
func MetadataName(id int) string {
	return strconv.Itoa(id) + ".json"
}

func checkRange(op string, id int, size int) error {
	if id < 0 || id >= size {
		return minterr.ForItem(minterr.KindOutOfRange, op, id, fmt.Errorf("id must be in [0, %d)", size))
	}
	return nil
}

func decodeMetadata(op string, id int, data []byte) (*Metadata, error) {
	metadata, err := ParseMetadata(data)
	if err != nil {
		return nil, minterr.ForItem(minterr.KindMalformedMetadata, op, id, err)
	}
	return metadata, nil
}
