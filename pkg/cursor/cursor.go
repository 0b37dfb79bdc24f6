package cursor

import (
	"context"
	"fmt"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
)

// Cursor records the last completed item id.
type Cursor interface {
	// Load returns the last completed id. ok is false when nothing has been
	// recorded yet.
	Load(ctx context.Context) (id int, ok bool, err error)
	// Advance durably records id as the last completed id.
	Advance(ctx context.Context, id int) error
}

// Next returns the first id a run should process.
func Next(ctx context.Context, cursor Cursor) (int, error) {
	last, ok, err := cursor.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last + 1, nil
}

type watermark struct {
	last  int
	known bool
}

func (w *watermark) check(id int) error {
	if id < 0 {
		return minterr.ForItem(minterr.KindStorage, "advance cursor", id, fmt.Errorf("id must not be negative"))
	}
	if w.known && id <= w.last {
		return minterr.ForItem(minterr.KindStorage, "advance cursor", id, fmt.Errorf("cursor is already at %d", w.last))
	}
	return nil
}

func (w *watermark) set(id int) {
	w.last = id
	w.known = true
}
