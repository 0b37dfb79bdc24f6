package app

import (
	"fmt"
	"io"
	"time"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. format is json or console.
func NewLogger(level string, format string, out io.Writer) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), minterr.New(minterr.KindInvalidConfig, "configure logger", err)
	}
	if parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	switch format {
	case "json":
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), minterr.New(minterr.KindInvalidConfig, "configure logger", fmt.Errorf("LOG_FORMAT must be json or console, got %q", format))
	}
	return zerolog.New(out).Level(parsed).With().Timestamp().Logger(), nil
}
