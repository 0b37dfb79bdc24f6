package hedera

import (
	"context"
	"errors"
	"strings"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
)

var (
	fundsStatuses = []string{
		"INSUFFICIENT_PAYER_BALANCE",
		"INSUFFICIENT_ACCOUNT_BALANCE",
		"INSUFFICIENT_TX_FEE",
	}
	capacityStatuses = []string{
		"TOKEN_MAX_SUPPLY_REACHED",
		"MAX_NFTS_IN_PRICE_REGIME_HAVE_BEEN_MINTED",
	}
	transientStatuses = []string{
		"BUSY",
		"PLATFORM_NOT_ACTIVE",
		"PLATFORM_TRANSACTION_NOT_CREATED",
		"TRANSACTION_EXPIRED",
	}
)

func kindForStatus(text string) minterr.Kind {
	upper := strings.ToUpper(text)
	switch {
	case containsAny(upper, fundsStatuses):
		return minterr.KindInsufficientFunds
	case containsAny(upper, capacityStatuses):
		return minterr.KindCapacityExceeded
	case containsAny(upper, transientStatuses):
		return minterr.KindTransientNetwork
	default:
		return minterr.KindRejectedByLedger
	}
}

// classify maps an SDK error onto a kind. Precheck and receipt failures carry
// a status name; anything else is a transport problem.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return minterr.New(minterr.KindTransientNetwork, op, err)
	}
	text := err.Error()
	if strings.Contains(strings.ToLower(text), "status") {
		return minterr.New(kindForStatus(text), op, err)
	}
	return minterr.New(minterr.KindTransientNetwork, op, err)
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
