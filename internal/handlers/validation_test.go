package handlers

import (
	"testing"
	"time"
)

func TestParseAmountMinor(t *testing.T) {
	cases := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"12.5", 1250, false},
		{"0.01", 1, false},
		{"1000", 100000, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"1.001", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parseAmountMinor(tc.raw)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("%q: got %d, %v", tc.raw, got, err)
		}
	}
}

func TestParseMonth(t *testing.T) {
	from, to, err := parseMonth("2026-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range %v - %v", from, to)
	}
	if _, _, err := parseMonth("2026-1"); err == nil {
		t.Fatalf("expected error for single digit month")
	}
}

func TestParseDate(t *testing.T) {
	if d, err := parseDate(""); err != nil || !d.IsZero() {
		t.Fatalf("empty date should be zero, got %v %v", d, err)
	}
	if _, err := parseDate("2026-10-15T08:30:00Z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := parseDate("15/10/2026"); err == nil {
		t.Fatalf("expected error")
	}
}
