package mirror

type TopicInfo struct {
	AdminKey         map[string]any `json:"admin_key"`
	CreatedTimestamp string         `json:"created_timestamp"`
	Deleted          bool           `json:"deleted"`
	Memo             string         `json:"memo"`
	SubmitKey        map[string]any `json:"submit_key"`
	TopicID          string         `json:"topic_id"`
}

type TopicMessage struct {
	ConsensusTimestamp string `json:"consensus_timestamp"`
	Message            string `json:"message"`
	PayerAccountID     string `json:"payer_account_id"`
	RunningHash        string `json:"running_hash"`
	SequenceNumber     int64  `json:"sequence_number"`
	TopicID            string `json:"topic_id"`
}

type topicMessagesResponse struct {
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
	Messages []TopicMessage `json:"messages"`
}

type NFT struct {
	AccountID         string `json:"account_id"`
	CreatedTimestamp  string `json:"created_timestamp"`
	Deleted           bool   `json:"deleted"`
	Metadata          string `json:"metadata"`
	SerialNumber      int64  `json:"serial_number"`
	TokenID           string `json:"token_id"`
	ModifiedTimestamp string `json:"modified_timestamp"`
}
