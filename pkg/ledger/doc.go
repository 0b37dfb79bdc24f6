// Package ledger defines the operations the minter needs from a ledger:
// creating a collection and a commitment tree, minting one item into a
// collection, and verifying collection membership.
//
// Implementations live in the solana and hedera subpackages. They classify
// failures with minterr: insufficient funds, transient network errors,
// ledger rejections and exhausted tree capacity.
package ledger
