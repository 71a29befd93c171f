package utils

import "testing"

func TestFormatINR(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{300, "₹300.00"},
		{1200, "₹1,200.00"},
		{50000, "₹50,000.00"},
		{100000, "₹1,00,000.00"},
		{1234567.5, "₹12,34,567.50"},
		{12345678.91, "₹1,23,45,678.91"},
		{-150, "-₹150.00"},
	}

	for _, tc := range cases {
		if got := FormatINR(tc.amount); got != tc.want {
			t.Errorf("FormatINR(%v) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}
