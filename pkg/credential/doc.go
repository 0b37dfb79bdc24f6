// Package credential resolves the signing credential for a minting run.
//
// A Credential is exactly one of a mnemonic phrase, a raw key (a JSON byte
// array as written by solana-keygen, or the payload of a Secret Manager
// version) or an encoded key string. When several sources are configured the
// mnemonic wins, then the encoded key, then the raw key. The resolved
// credential is turned into a ledger signer by SolanaAccount or HederaKey.
package credential
