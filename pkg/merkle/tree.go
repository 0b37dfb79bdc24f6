package merkle

import (
	"crypto/sha256"
	"fmt"
)

// MaxDepth bounds tree depth so that capacity fits comfortably in a uint64.
const MaxDepth = 30

// Capacity is the number of leaves a tree of the given depth holds.
func Capacity(depth uint32) uint64 {
	return uint64(1) << depth
}

// ValidateShape checks tree parameters before a tree is created.
func ValidateShape(maxDepth uint32, maxBufferSize uint32, canopyDepth uint32) error {
	if maxDepth == 0 || maxDepth > MaxDepth {
		return fmt.Errorf("max depth must be between 1 and %d", MaxDepth)
	}
	if maxBufferSize == 0 {
		return fmt.Errorf("max buffer size must be positive")
	}
	if canopyDepth >= maxDepth {
		return fmt.Errorf("canopy depth must be smaller than max depth")
	}
	return nil
}

// HashLeaf is SHA-256(0x00 || leaf).
func HashLeaf(leaf []byte) []byte {
	hasher := sha256.New()
	hasher.Write([]byte{0x00})
	hasher.Write(leaf)
	return hasher.Sum(nil)
}
