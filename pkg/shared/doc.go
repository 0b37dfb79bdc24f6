// Package shared provides helpers used by several minter packages: ledger
// network normalization, Hedera client construction, Hedera key parsing and
// the .env discovery used by the configuration loader.
//
// # Environment Variables
//
// LoadDotEnv walks up from the working directory looking for a .env file and
// loads every key that is not already present in the process environment.
// Values already exported by the shell always win.
package shared
