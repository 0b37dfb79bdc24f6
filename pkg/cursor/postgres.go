package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	_ "github.com/lib/pq"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS mint_cursors (
	name       TEXT PRIMARY KEY,
	last_id    BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresCursor keeps one cursor row per name in the mint_cursors table.
type PostgresCursor struct {
	db   *sql.DB
	name string

	mu        sync.Mutex
	watermark watermark
}

// OpenPostgres connects to dsn and makes sure the cursor table exists.
func OpenPostgres(ctx context.Context, dsn string, name string) (*PostgresCursor, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor database: %w", err)
	}
	cursor, err := NewPostgresCursor(ctx, db, name)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cursor, nil
}

func NewPostgresCursor(ctx context.Context, db *sql.DB, name string) (*PostgresCursor, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("cursor name is required")
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, minterr.New(minterr.KindStorage, "create cursor table", err)
	}
	return &PostgresCursor{db: db, name: name}, nil
}

func (c *PostgresCursor) Close() error {
	return c.db.Close()
}

func (c *PostgresCursor) Load(ctx context.Context) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var last int64
	err := c.db.QueryRowContext(ctx, `SELECT last_id FROM mint_cursors WHERE name = $1`, c.name).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, minterr.New(minterr.KindStorage, "load cursor", err)
	}
	c.watermark.set(int(last))
	return int(last), true, nil
}

// Advance only moves the stored row forward, even against another writer.
func (c *PostgresCursor) Advance(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.watermark.check(id); err != nil {
		return err
	}
	result, err := c.db.ExecContext(ctx, `
		INSERT INTO mint_cursors (name, last_id)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			last_id = EXCLUDED.last_id,
			updated_at = now()
		WHERE mint_cursors.last_id < EXCLUDED.last_id
	`, c.name, int64(id))
	if err != nil {
		return minterr.ForItem(minterr.KindStorage, "advance cursor", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return minterr.ForItem(minterr.KindStorage, "advance cursor", id, err)
	}
	if affected == 0 {
		return minterr.ForItem(minterr.KindStorage, "advance cursor", id, fmt.Errorf("stored cursor %s is already at or beyond %d", c.name, id))
	}
	c.watermark.set(id)
	return nil
}
