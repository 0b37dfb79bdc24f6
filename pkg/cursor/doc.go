// Package cursor persists the highest item id a minting run has fully
// processed, so an interrupted run resumes at the next id.
//
// The file cursor stores a base-10 integer and replaces it atomically. The
// Postgres cursor stores one row per cursor name. Both refuse to move
// backwards. CompletionSet tracks non-contiguous completion for runs that
// finish items out of order.
package cursor
