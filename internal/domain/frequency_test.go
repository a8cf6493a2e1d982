package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Frequency
		wantErr bool
	}{
		{name: "daily by days", raw: "1", want: FrequencyDaily},
		{name: "weekly by name", raw: " Weekly ", want: FrequencyWeekly},
		{name: "monthly by days", raw: "30", want: FrequencyMonthly},
		{name: "unknown", raw: "14", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrequency(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFrequency) {
					t.Fatalf("ParseFrequency(%q) error = %v, want ErrInvalidFrequency", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrequency(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseFrequency(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFrequencyDays(t *testing.T) {
	if FrequencyWeekly.Days() != 7 || FrequencyMonthly.Days() != 30 || FrequencyDaily.Days() != 1 {
		t.Fatal("unexpected day count for frequency")
	}
	if Frequency("2").Valid() {
		t.Fatal("expected 2 to be invalid")
	}
}

func TestSplitKeywords(t *testing.T) {
	got := SplitKeywords(" ai, cloud ,, devops ")
	want := []string{"ai", "cloud", "devops"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitKeywords = %v, want %v", got, want)
	}
	if len(SplitKeywords("  ")) != 0 {
		t.Fatal("expected no keywords for blank input")
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	err := error(&UpstreamError{Provider: "newsapi", Status: 401, Message: "apiKeyInvalid"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatal("expected upstream error to match ErrUpstream")
	}
	if err.Error() != "newsapi: status 401: apiKeyInvalid" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
