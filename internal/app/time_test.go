package app

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	got, err := parseTime("2024-05-01T12:30:00Z")
	if err != nil {
		t.Fatalf("parseTime RFC3339: %v", err)
	}
	if !got.Equal(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}

	got, err = parseTime("2024-05-01")
	if err != nil {
		t.Fatalf("parseTime date: %v", err)
	}
	if !got.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}

	if _, err := parseTime("yesterday"); err == nil {
		t.Fatalf("expected error for unparsable time")
	}
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("2024-05-01", "2024-05-31")
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	if !end.After(start) {
		t.Fatalf("unexpected range %v..%v", start, end)
	}

	if _, _, err := parseRange("", "2024-05-31"); err == nil {
		t.Fatalf("start is required")
	}
	if _, _, err := parseRange("2024-05-01", ""); err == nil {
		t.Fatalf("end is required")
	}
	if _, _, err := parseRange("2024-05-31", "2024-05-01"); err == nil {
		t.Fatalf("inverted range must be rejected")
	}
}
