package token

import (
	"math/big"
	"testing"
)

func TestParseAmount_Precision(t *testing.T) {
	cases := []struct {
		value    string
		decimals int
		expected string
	}{
		{"20", 6, "20000000"},
		{"1.5", 18, "1500000000000000000"},
		{"0.000001", 6, "1"},
		{"1000", 18, "1000000000000000000000"},
		{"0", 6, "0"},
		{".5", 6, "500000"},
	}

	for _, tc := range cases {
		got, err := ParseAmount(tc.value, tc.decimals)
		if err != nil {
			t.Fatalf("ParseAmount(%q, %d) returned error: %v", tc.value, tc.decimals, err)
		}
		want, _ := new(big.Int).SetString(tc.expected, 10)
		if got.Cmp(want) != 0 {
			t.Errorf("ParseAmount(%q, %d) = %s, want %s", tc.value, tc.decimals, got, want)
		}
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	cases := []struct {
		value    string
		decimals int
	}{
		{"", 18},
		{"abc", 18},
		{"1.2345678", 6},
		{"-1", 18},
		{"1.2.3", 18},
	}

	for _, tc := range cases {
		if _, err := ParseAmount(tc.value, tc.decimals); err == nil {
			t.Errorf("ParseAmount(%q, %d) expected error, got nil", tc.value, tc.decimals)
		}
	}
}

func TestParseTokenAmount_UsesRegistryDecimals(t *testing.T) {
	got, err := ParseTokenAmount("20", USDCe)
	if err != nil {
		t.Fatalf("ParseTokenAmount returned error: %v", err)
	}
	if got.String() != "20000000" {
		t.Errorf("USDC.e amount = %s, want 20000000", got)
	}

	got, err = ParseTokenAmount("1.5", ETH)
	if err != nil {
		t.Fatalf("ParseTokenAmount returned error: %v", err)
	}
	if got.String() != "1500000000000000000" {
		t.Errorf("ETH amount = %s, want 1500000000000000000", got)
	}
}

func TestFormatAmount_RoundTrip(t *testing.T) {
	amount, _ := ParseAmount("1.5", 18)
	if got := FormatAmount(amount, 18); got != "1.5" {
		t.Errorf("FormatAmount = %s, want 1.5", got)
	}
	if got := FormatAmount(big.NewInt(20000000), 6); got != "20" {
		t.Errorf("FormatAmount = %s, want 20", got)
	}
}

func TestMaxApproval_Is256BitMax(t *testing.T) {
	expected, _ := new(big.Int).SetString("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", 16)
	if MaxApproval.Cmp(expected) != 0 {
		t.Fatalf("MaxApproval = %s, want 2^256-1", MaxApproval)
	}
}
