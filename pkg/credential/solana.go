package credential

import (
	"crypto/ed25519"
	"fmt"

	"github.com/blocto/solana-go-sdk/pkg/hdwallet"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/hashgraph-online/nft-minter-go/pkg/minterr"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"
)

// SolanaDerivationPath is the account path used by Phantom and solana-keygen.
const SolanaDerivationPath = "m/44'/501'/0'/0'"

// SolanaAccount turns the credential into a Solana signer.
func SolanaAccount(credential Credential) (types.Account, error) {
	switch credential.Kind {
	case KindMnemonic:
		seed := bip39.NewSeed(credential.Mnemonic, "")
		derived, err := hdwallet.Derived(SolanaDerivationPath, seed)
		if err != nil {
			return types.Account{}, minterr.New(minterr.KindInvalidConfig, "derive solana account", err)
		}
		account, err := types.AccountFromSeed(derived.PrivateKey)
		if err != nil {
			return types.Account{}, minterr.New(minterr.KindInvalidConfig, "derive solana account", err)
		}
		return account, nil
	case KindEncodedKey:
		var (
			decoded []byte
			err     error
		)
		switch credential.Encoding {
		case EncodingBase58:
			decoded, err = base58.Decode(credential.Encoded)
		case EncodingHex:
			decoded, err = decodeHex(credential.Encoded)
		default:
			err = fmt.Errorf("encoding %q is not supported for solana keys", credential.Encoding)
		}
		if err != nil {
			return types.Account{}, minterr.New(minterr.KindInvalidConfig, "decode solana key", err)
		}
		return solanaAccountFromBytes(decoded)
	case KindRawKey:
		return solanaAccountFromBytes(credential.Raw)
	default:
		return types.Account{}, minterr.Newf(minterr.KindInvalidConfig, "decode solana key", "credential kind %s is not set", credential.Kind)
	}
}

func solanaAccountFromBytes(key []byte) (types.Account, error) {
	var (
		account types.Account
		err     error
	)
	switch len(key) {
	case ed25519.SeedSize:
		account, err = types.AccountFromSeed(key)
	case ed25519.PrivateKeySize:
		account, err = types.AccountFromBytes(key)
	default:
		err = fmt.Errorf("unexpected key length %d", len(key))
	}
	if err != nil {
		return types.Account{}, minterr.New(minterr.KindInvalidConfig, "decode solana key", err)
	}
	return account, nil
}
