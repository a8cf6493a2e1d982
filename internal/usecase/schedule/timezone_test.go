package schedule

import (
	"errors"
	"testing"
)

func TestNormalizeTimezone(t *testing.T) {
	cases := map[string]string{
		"Europe/Moscow":        "Europe/Moscow",
		"europe/moscow":        "Europe/Moscow",
		"america/new york":     "America/New_York",
		" America/Los_Angeles": "America/Los_Angeles",
		"UTC":                  "UTC",
	}
	for input, expected := range cases {
		got, err := normalizeTimezone(input)
		if err != nil {
			t.Fatalf("normalizeTimezone(%q): не ожидали ошибку: %v", input, err)
		}
		if got != expected {
			t.Fatalf("normalizeTimezone(%q) = %q, ожидали %q", input, got, expected)
		}
	}
	if _, err := normalizeTimezone("Mars/Olympus"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("ожидали ErrInvalidTimezone, получили %v", err)
	}
}

func TestResolveLocationDefaultsToUTC(t *testing.T) {
	loc, err := ResolveLocation("")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if loc.String() != "UTC" {
		t.Fatalf("ожидали UTC, получили %s", loc)
	}
}
