// Package solana implements ledger.Client on Solana.
//
// Collections and regular mints are SPL mints carrying Metaplex metadata and
// a master edition with zero print supply. Regular mints reference their
// collection unverified and are verified in a second transaction. Compressed
// mints go through Bubblegum into a concurrent merkle tree and are verified
// by the mint instruction itself.
package solana
