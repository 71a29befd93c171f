package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR renders an amount with the rupee sign and Indian digit
// grouping, e.g. 1234567.5 -> "₹12,34,567.50". Matches the en-IN
// formatting the report templates expect.
func FormatINR(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)

	negative := d.IsNegative()
	if negative {
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	parts := strings.SplitN(fixed, ".", 2)
	grouped := groupIndian(parts[0])

	out := "₹" + grouped + "." + parts[1]
	if negative {
		out = "-" + out
	}
	return out
}

// groupIndian inserts commas in the Indian style: the last three digits
// form one group, every two digits before that form another.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}
