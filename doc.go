// Package nftminter mints NFT collections on Solana or Hedera from a
// directory (or bucket) of images and JSON descriptors.
//
// # Pipeline
//
// Minting is sequential and resumable: a cursor records the last id that was
// uploaded, minted and verified, and the next run starts one past it. Asset
// uploads can also run ahead of minting in bounded concurrent windows.
//
// # Commands
//
//   - upload-assets: upload images and descriptors in windows
//   - mint-collection: create the parent collection
//   - create-tree: create the commitment tree for compressed mints
//   - mint-nfts: mint regular NFTs from the cursor onwards
//   - mint-cnfts: mint compressed NFTs from the cursor onwards
//   - check-wallet: print the signer address and balance
//
// Every command is configured through the environment, a .env file found by
// walking up from the working directory, or the YAML file named by
// MINTER_CONFIG_FILE.
//
// # Installation
//
//	go install github.com/hashgraph-online/nft-minter-go/cmd/...@latest
package nftminter
