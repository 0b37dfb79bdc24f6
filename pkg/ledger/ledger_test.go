package ledger

import "testing"

func TestMintRequestValidate(t *testing.T) {
	valid := MintRequest{ItemID: 1, Name: "#1", URI: "ipfs://x", CollectionID: "c"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid.Compressed() {
		t.Fatal("expected regular mint")
	}

	withTree := valid
	withTree.TreeID = "tree"
	if !withTree.Compressed() {
		t.Fatal("expected compressed mint")
	}

	cases := []MintRequest{
		{Name: "#1", URI: "ipfs://x"},
		{Name: "#1", CollectionID: "c"},
		{URI: "ipfs://x", CollectionID: "c"},
		{Name: "#1", URI: "ipfs://x", CollectionID: "c", RoyaltyBps: 10001},
	}
	for _, request := range cases {
		if err := request.Validate(); err == nil {
			t.Fatalf("expected error for %+v", request)
		}
	}
}

func TestBalanceString(t *testing.T) {
	cases := []struct {
		balance  Balance
		expected string
	}{
		{Balance{Amount: 1500000000, Unit: "SOL", Decimals: 9}, "1.500000000 SOL"},
		{Balance{Amount: 250000000, Unit: "HBAR", Decimals: 8}, "2.50000000 HBAR"},
		{Balance{Amount: 42, Unit: "lamports"}, "42 lamports"},
	}
	for _, tc := range cases {
		if got := tc.balance.String(); got != tc.expected {
			t.Fatalf("expected %q, got %q", tc.expected, got)
		}
	}
}
