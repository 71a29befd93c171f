package controllers

import (
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func TestContributionInputValidateVariant(t *testing.T) {
	cases := []struct {
		name    string
		input   contributionInput
		wantErr bool
	}{
		{
			name:  "valid cash",
			input: contributionInput{Type: "cash", Amount: floatPtr(500)},
		},
		{
			name:    "cash without amount",
			input:   contributionInput{Type: "cash"},
			wantErr: true,
		},
		{
			name:    "cash with zero amount",
			input:   contributionInput{Type: "cash", Amount: floatPtr(0)},
			wantErr: true,
		},
		{
			name:    "cash with item fields",
			input:   contributionInput{Type: "cash", Amount: floatPtr(500), ItemName: "Rice"},
			wantErr: true,
		},
		{
			name:  "valid item",
			input: contributionInput{Type: "item", ItemName: "Rice", Quantity: 5, EstimatedValue: floatPtr(900)},
		},
		{
			name:    "item without name",
			input:   contributionInput{Type: "item"},
			wantErr: true,
		},
		{
			name:    "item with cash amount",
			input:   contributionInput{Type: "item", ItemName: "Rice", Amount: floatPtr(100)},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := tc.input.validateVariant()
			if tc.wantErr && msg == "" {
				t.Error("expected a validation error, got none")
			}
			if !tc.wantErr && msg != "" {
				t.Errorf("unexpected validation error: %s", msg)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if _, ok := parseDate(nil); !ok {
		t.Error("nil date should default to now")
	}

	raw := "2025-10-02"
	date, ok := parseDate(&raw)
	if !ok {
		t.Fatalf("failed to parse %q", raw)
	}
	if date.Year() != 2025 || date.Month() != time.October || date.Day() != 2 {
		t.Errorf("parsed %v, want 2025-10-02", date)
	}

	bad := "02-10-2025"
	if _, ok := parseDate(&bad); ok {
		t.Errorf("expected %q to be rejected", bad)
	}
}

func TestDateRangeStart(t *testing.T) {
	// a Wednesday
	now := time.Date(2025, time.October, 1, 15, 30, 0, 0, time.UTC)

	start, ok := dateRangeStart("today", now)
	if !ok || !start.Equal(time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("today start = %v", start)
	}

	start, ok = dateRangeStart("this_week", now)
	if !ok || !start.Equal(time.Date(2025, time.September, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("this_week start = %v, want Monday Sep 29", start)
	}

	start, ok = dateRangeStart("this_month", now)
	if !ok || !start.Equal(time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("this_month start = %v", start)
	}

	if _, ok := dateRangeStart("", now); ok {
		t.Error("empty dateRange must not produce a bound")
	}
	if _, ok := dateRangeStart("last_year", now); ok {
		t.Error("unknown dateRange must not produce a bound")
	}
}

func TestPageParamsMetadata(t *testing.T) {
	p := pageParams{Enabled: true, Page: 2, Limit: 10}
	if p.Skip() != 10 {
		t.Errorf("Skip() = %d, want 10", p.Skip())
	}
	meta := p.metadata(25)
	if meta["totalPages"] != int64(3) {
		t.Errorf("totalPages = %v, want 3", meta["totalPages"])
	}

	full := pageParams{}
	meta = full.metadata(7)
	if meta["page"] != 1 || meta["totalPages"] != 1 {
		t.Errorf("unpaginated metadata = %v", meta)
	}
}
