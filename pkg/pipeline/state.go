package pipeline

import "time"

type State string

const (
	StatePending   State = "pending"
	StateUploading State = "uploading"
	StateUploaded  State = "uploaded"
	StateMinting   State = "minting"
	StateMinted    State = "minted"
	StateVerified  State = "verified"
	StateRecorded  State = "recorded"
	StateFailed    State = "failed"
)

// Item is the progress of one id through a run. Address is the uploaded
// descriptor URI and TokenID the ledger's identifier once minted.
type Item struct {
	ID      int
	State   State
	Address string
	TokenID string
	Err     error
	Elapsed time.Duration
}
