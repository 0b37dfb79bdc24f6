package solana

import (
	"context"
	"errors"
	"strings"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
)

var (
	fundsMarkers = []string{
		"insufficient funds",
		"insufficient lamports",
		"attempt to debit an account but found no record of a prior credit",
	}
	rejectionMarkers = []string{
		"simulation failed",
		"custom program error",
		"instruction error",
		"invalid account data",
		"invalid param",
		"signature verification failure",
	}
)

// classify maps an RPC error onto a kind by its message.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return minterr.New(minterr.KindTransientNetwork, op, err)
	}
	text := strings.ToLower(err.Error())
	switch {
	case containsAny(text, fundsMarkers):
		return minterr.New(minterr.KindInsufficientFunds, op, err)
	case containsAny(text, rejectionMarkers):
		return minterr.New(minterr.KindRejectedByLedger, op, err)
	default:
		return minterr.New(minterr.KindTransientNetwork, op, err)
	}
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
