// Package config loads minter settings from the process environment, an
// optional .env file and an optional YAML file named by MINTER_CONFIG_FILE.
//
// Precedence is environment, then .env (which never overrides exported
// variables), then the YAML file, then built-in defaults. The YAML file uses
// the same upper-case keys as the environment:
//
//	LEDGER: solana
//	NFT_MINTING_MAX_ID: 500
//	UPLOAD_WINDOW: 8
//
// Load reports every malformed value at once. The Validate* methods check the
// settings a particular entry point needs.
package config
