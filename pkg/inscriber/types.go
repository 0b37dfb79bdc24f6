package inscriber

import "time"

type ConnectionMode string

const (
	ConnectionModeWebSocket ConnectionMode = "websocket"
	ConnectionModeHTTP      ConnectionMode = "http"
)

const modeFile = "file"

type FileInput struct {
	Base64   string
	FileName string
	MimeType string
}

type StartRequest struct {
	HolderID string
	File     FileInput
	Tags     []string
}

type Job struct {
	ID               string
	Status           string
	Completed        bool
	TransactionID    string
	TransactionBytes string
	TxID             string
	TopicID          string
	Error            string
}

type WaitOptions struct {
	MaxAttempts int
	Interval    time.Duration
}
