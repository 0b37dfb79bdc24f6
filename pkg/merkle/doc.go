// Package merkle implements the commitment tree used for compressed mints on
// ledgers without a native concurrent Merkle tree program.
//
// Leaves are canonical JSON documents hashed as SHA-256(0x00 || leaf), the
// RFC 6962 leaf prefix. A tree of depth d holds at most 2^d leaves. Leaf
// payloads travel on the ledger brotli-compressed inside a small JSON
// envelope.
package merkle
