package cursor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
)

// FileCursor keeps the cursor in a small text file. An empty file counts as
// no record; any other content that is not a non-negative integer is an error.
type FileCursor struct {
	path   string
	writer shared.AtomicWriter

	mu        sync.Mutex
	watermark watermark
}

func NewFileCursor(path string) (*FileCursor, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cursor path is required")
	}
	return &FileCursor{path: path}, nil
}

func (c *FileCursor) Path() string {
	return c.path
}

func (c *FileCursor) Load(ctx context.Context) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, minterr.New(minterr.KindStorage, "load cursor", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, false, nil
	}
	id, err := strconv.Atoi(text)
	if err != nil || id < 0 {
		return 0, false, minterr.Newf(minterr.KindStorage, "load cursor", "cursor file %s holds %q, not a non-negative integer", c.path, text)
	}
	c.watermark.set(id)
	return id, true, nil
}

func (c *FileCursor) Advance(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.watermark.check(id); err != nil {
		return err
	}
	if err := c.writer.WriteFile(c.path, []byte(strconv.Itoa(id)), 0o644); err != nil {
		return minterr.ForItem(minterr.KindStorage, "advance cursor", id, err)
	}
	c.watermark.set(id)
	return nil
}
