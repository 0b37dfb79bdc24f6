package credential

import (
	"crypto/ed25519"
	"fmt"

	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/hashgraph-online/nft-minter-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// HederaKey turns the credential into a Hedera operator key.
func HederaKey(credential Credential) (hedera.PrivateKey, error) {
	switch credential.Kind {
	case KindMnemonic:
		mnemonic, err := hedera.MnemonicFromString(credential.Mnemonic)
		if err != nil {
			return hedera.PrivateKey{}, minterr.New(minterr.KindInvalidConfig, "derive hedera key", err)
		}
		key, err := mnemonic.ToStandardEd25519PrivateKey("", 0)
		if err != nil {
			return hedera.PrivateKey{}, minterr.New(minterr.KindInvalidConfig, "derive hedera key", err)
		}
		return key, nil
	case KindEncodedKey:
		key, err := shared.ParseHederaPrivateKey(credential.Encoded)
		if err != nil {
			return hedera.PrivateKey{}, minterr.New(minterr.KindInvalidConfig, "decode hedera key", err)
		}
		return key, nil
	case KindRawKey:
		if len(credential.Raw) != ed25519.SeedSize && len(credential.Raw) != ed25519.PrivateKeySize {
			return hedera.PrivateKey{}, minterr.Newf(minterr.KindInvalidConfig, "decode hedera key", "unexpected key length %d", len(credential.Raw))
		}
		key, err := hedera.PrivateKeyFromBytesEd25519(credential.Raw)
		if err != nil {
			return hedera.PrivateKey{}, minterr.New(minterr.KindInvalidConfig, "decode hedera key", fmt.Errorf("failed to parse raw key: %w", err))
		}
		return key, nil
	default:
		return hedera.PrivateKey{}, minterr.Newf(minterr.KindInvalidConfig, "decode hedera key", "credential kind %s is not set", credential.Kind)
	}
}
