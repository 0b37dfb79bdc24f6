// Package minterr defines the error kinds shared by the asset store, cursor,
// pinning and ledger layers of the minter.
//
// Every collaborator wraps its failures in an *Error carrying a Kind, so the
// pipeline and the command entry points can classify a failure without
// inspecting vendor error strings. Errors keep their cause and unwrap through
// the standard errors package.
package minterr
