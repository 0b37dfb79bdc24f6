package merkle

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// Leaf is the record appended to a commitment tree for one compressed mint.
type Leaf struct {
	Collection string `json:"collection"`
	Index      uint64 `json:"index"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	RoyaltyBps uint16 `json:"royalty_bps"`
	Symbol     string `json:"symbol"`
	URI        string `json:"uri"`
}

// Hash returns the leaf hash of the canonical encoding.
func (l Leaf) Hash() ([]byte, error) {
	canonical, err := CanonicalJSON(l)
	if err != nil {
		return nil, err
	}
	return HashLeaf(canonical), nil
}

type envelope struct {
	Content string `json:"c"`
	Hash    string `json:"h"`
}

// EncodeLeaf produces the on-ledger message for a leaf: the canonical JSON,
// brotli-compressed and base64-encoded, next to its hex leaf hash.
func EncodeLeaf(leaf Leaf) ([]byte, error) {
	canonical, err := CanonicalJSON(leaf)
	if err != nil {
		return nil, err
	}

	var compressed bytes.Buffer
	writer := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	if _, err := writer.Write(canonical); err != nil {
		return nil, fmt.Errorf("failed to compress leaf: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress leaf: %w", err)
	}

	return json.Marshal(envelope{
		Content: base64.StdEncoding.EncodeToString(compressed.Bytes()),
		Hash:    hex.EncodeToString(HashLeaf(canonical)),
	})
}

// DecodeLeaf reverses EncodeLeaf and checks the embedded hash.
func DecodeLeaf(message []byte) (Leaf, []byte, error) {
	var wrapped envelope
	if err := json.Unmarshal(message, &wrapped); err != nil {
		return Leaf{}, nil, fmt.Errorf("leaf message is not a JSON envelope: %w", err)
	}
	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(wrapped.Content))
	if err != nil {
		return Leaf{}, nil, fmt.Errorf("leaf content must be base64: %w", err)
	}
	canonical, err := io.ReadAll(brotli.NewReader(bytes.NewReader(compressed)))
	if err != nil {
		return Leaf{}, nil, fmt.Errorf("failed to decompress leaf: %w", err)
	}

	hash := HashLeaf(canonical)
	if !strings.EqualFold(hex.EncodeToString(hash), strings.TrimSpace(wrapped.Hash)) {
		return Leaf{}, nil, fmt.Errorf("leaf hash mismatch")
	}

	var leaf Leaf
	if err := json.Unmarshal(canonical, &leaf); err != nil {
		return Leaf{}, nil, fmt.Errorf("failed to decode leaf: %w", err)
	}
	return leaf, hash, nil
}
