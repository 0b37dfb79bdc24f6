package solana

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

var (
	bubblegumProgramID   = common.PublicKeyFromString("BGUMAp9Gq7iTEuizy4pqaxsTyUCBK68MDfK752saRPUY")
	compressionProgramID = common.PublicKeyFromString("cmtDvXumGCrqC1Age74AVPhSRVXJMd8PJS91L8KbNCK")
	noopProgramID        = common.PublicKeyFromString("noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV")
)

// anchorDiscriminator is the eight byte instruction tag Anchor programs
// dispatch on.
func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// parsePublicKey decodes a base58 address and rejects anything that is not
// exactly 32 bytes.
func parsePublicKey(address string) (common.PublicKey, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return common.PublicKey{}, fmt.Errorf("address is required")
	}
	decoded, err := base58.Decode(trimmed)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("address %q is not base58: %w", trimmed, err)
	}
	if len(decoded) != common.PublicKeyLength {
		return common.PublicKey{}, fmt.Errorf("address %q decodes to %d bytes, want %d", trimmed, len(decoded), common.PublicKeyLength)
	}
	return common.PublicKeyFromBytes(decoded), nil
}

func treeAuthority(tree common.PublicKey) (common.PublicKey, error) {
	address, _, err := common.FindProgramAddress([][]byte{tree.Bytes()}, bubblegumProgramID)
	return address, err
}

func bubblegumSigner() (common.PublicKey, error) {
	address, _, err := common.FindProgramAddress([][]byte{[]byte("collection_cpi")}, bubblegumProgramID)
	return address, err
}

// assetID derives the address that names a compressed asset.
func assetID(tree common.PublicKey, leafIndex uint64) (common.PublicKey, error) {
	nonce := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonce, leafIndex)
	address, _, err := common.FindProgramAddress([][]byte{[]byte("asset"), tree.Bytes(), nonce}, bubblegumProgramID)
	return address, err
}
