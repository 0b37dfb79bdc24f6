package pinning

import (
	"context"
	"strings"
)

// Client uploads a blob and returns its content address.
type Client interface {
	Upload(ctx context.Context, name string, data []byte, groupID string) (string, error)
}

var remoteSchemes = []string{"https://", "http://", "ipfs://", "hcs://", "ar://"}

// IsRemote reports whether uri already points at uploaded content.
func IsRemote(uri string) bool {
	lower := strings.ToLower(strings.TrimSpace(uri))
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// GatewayURL turns a content address into a fetchable URL. Addresses that
// already carry a scheme are returned unchanged. ext, when set, is appended as
// the ?ext= hint that marketplaces use to pick a renderer.
func GatewayURL(gateway string, address string, ext string) string {
	if strings.Contains(address, "://") {
		return address
	}
	base := strings.TrimRight(strings.TrimSpace(gateway), "/")
	if !strings.HasSuffix(base, "/ipfs") {
		base += "/ipfs"
	}
	url := base + "/" + address
	if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
		url += "?ext=" + ext
	}
	return url
}
