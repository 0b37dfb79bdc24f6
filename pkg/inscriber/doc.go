// Package inscriber stores asset files on Hedera through the Kiloscribe
// inscription service and exposes them as pinning.Client uploads.
//
// An upload authenticates with a signed challenge, starts a file
// inscription, signs and executes the transaction the service returns, and
// waits for completion over the socket.io feed, falling back to polling.
// The content address of a finished upload is its HCS-1 topic:
//
//	hcs://1/0.0.123456
//
// Typical wiring:
//
//	apiKey, err := inscriber.NewAuthClient(authURL, nil).Authenticate(ctx, accountID, key, "testnet")
//	client, err := inscriber.NewClient(inscriber.Config{APIKey: apiKey, Network: "testnet"})
//	uploader, err := inscriber.NewUploader(inscriber.UploaderConfig{Client: client, ...})
package inscriber
