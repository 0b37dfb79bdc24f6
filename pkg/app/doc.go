// Package app builds the minter's components from a loaded configuration.
//
// Every entry point calls Run with the components it needs; nothing is kept
// in package state, so tests can build an App directly with Build.
package app
