package pinning

import "testing"

func TestGatewayURL(t *testing.T) {
	cases := []struct {
		gateway  string
		address  string
		ext      string
		expected string
	}{
		{"https://gateway.pinata.cloud", "QmHash", "png", "https://gateway.pinata.cloud/ipfs/QmHash?ext=png"},
		{"https://gateway.pinata.cloud/", "QmHash", "", "https://gateway.pinata.cloud/ipfs/QmHash"},
		{"https://my.mypinata.cloud/ipfs/", "QmHash", ".jpg", "https://my.mypinata.cloud/ipfs/QmHash?ext=jpg"},
		{"https://gateway.pinata.cloud", "hcs://1/0.0.123", "png", "hcs://1/0.0.123"},
	}
	for _, tc := range cases {
		if got := GatewayURL(tc.gateway, tc.address, tc.ext); got != tc.expected {
			t.Fatalf("expected %q, got %q", tc.expected, got)
		}
	}
}

func TestIsRemote(t *testing.T) {
	for _, uri := range []string{"https://x/y", "ipfs://cid", "HCS://1/0.0.1", "ar://tx"} {
		if !IsRemote(uri) {
			t.Fatalf("expected %q to be remote", uri)
		}
	}
	for _, uri := range []string{"", "0.png", "./images/0.png", "file:///tmp/0.png"} {
		if IsRemote(uri) {
			t.Fatalf("expected %q to be local", uri)
		}
	}
}
