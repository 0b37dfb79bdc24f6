// Package mirror is a read-only client for the Hedera mirror node REST API.
//
// The minter uses it to read the memo and latest sequence number of
// commitment-tree topics, to fetch individual leaf messages and to confirm
// that a minted serial belongs to its collection.
// A 404 response is reported as ErrNotFound; transport failures and 5xx
// responses are transient network errors.
package mirror
