package types

import "testing"

func TestNewAddressCanonicalizes(t *testing.T) {
	addr, err := NewAddress("0xC02AAA39B223FE8D0A0E5C4F27EAD9083C756CC2")
	if err != nil {
		t.Fatalf("valid address should parse: %v", err)
	}
	if addr.Hex() != "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2" {
		t.Fatalf("address should canonicalize to lowercase, got %s", addr.Hex())
	}
}

func TestNewAddressRejectsInvalidInput(t *testing.T) {
	cases := []string{
		"",
		"0x123",
		"not-an-address",
		"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc", // 19 bytes
	}
	for _, raw := range cases {
		if _, err := NewAddress(raw); err == nil {
			t.Fatalf("input %q should be rejected", raw)
		}
	}
}

func TestAddressEqualityAfterCanonicalization(t *testing.T) {
	a := MustAddress("0xC02AAA39B223FE8D0A0E5C4F27EAD9083C756CC2")
	b := MustAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	if a != b {
		t.Fatal("case variants of the same address should compare equal")
	}
}

func TestZeroAddressValue(t *testing.T) {
	var addr Address
	if !addr.IsZero() {
		t.Fatal("zero value should report IsZero")
	}
}

func TestParsePlatformProtocol(t *testing.T) {
	if _, err := ParsePlatform("votium"); err != nil {
		t.Fatalf("votium should parse: %v", err)
	}
	if _, err := ParsePlatform("mystery"); err == nil {
		t.Fatal("unknown platform should be rejected")
	}
	if _, err := ParseProtocol("aura-bal"); err != nil {
		t.Fatalf("aura-bal should parse: %v", err)
	}
	if _, err := ParseProtocol("mystery"); err == nil {
		t.Fatal("unknown protocol should be rejected")
	}
}
