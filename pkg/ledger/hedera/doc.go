// Package hedera implements ledger.Client on the Hedera network.
//
// Collections are HTS non-fungible tokens with a finite supply and an
// optional royalty fee. Regular mints are HTS token mints whose metadata is
// the descriptor URI. Commitment trees are HCS topics whose memo records the
// tree shape; a compressed mint appends one brotli-compressed leaf message to
// the topic and is identified by its leaf index. Membership checks are read
// only and go through the mirror node.
package hedera
