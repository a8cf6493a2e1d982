package summarizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"industry-mailer/internal/domain"
)

func TestLocalFirstSentence(t *testing.T) {
	got := Local(domain.Article{Title: "T", Description: "First sentence. Second sentence."}, 200)
	if got != "First sentence." {
		t.Fatalf("ожидали первое предложение, получили %q", got)
	}
}

func TestLocalFallsBackToTitle(t *testing.T) {
	tests := []struct {
		name string
		desc string
	}{
		{name: "empty", desc: ""},
		{name: "whitespace", desc: "   \n\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Local(domain.Article{Title: "Headline", Description: tt.desc}, 200)
			if got != "Headline" {
				t.Fatalf("ожидали заголовок, получили %q", got)
			}
		})
	}
}

func TestLocalWithoutPunctuationUsesWholeDescription(t *testing.T) {
	got := Local(domain.Article{Description: "no punctuation here"}, 200)
	if got != "no punctuation here" {
		t.Fatalf("получили %q", got)
	}
}

func TestLocalTruncatesAtWordBoundary(t *testing.T) {
	desc := strings.TrimSpace(strings.Repeat("word ", 50))
	desc += " tail"
	got := Local(domain.Article{Description: desc}, 200)

	if utf8.RuneCountInString(got) > 203 {
		t.Fatalf("слишком длинное резюме: %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("ожидали многоточие в конце: %q", got)
	}
	for _, w := range strings.Fields(strings.TrimSuffix(got, "...")) {
		if w != "word" {
			t.Fatalf("обрезано посреди слова: %q", w)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "alpha beta gamma", max: 8, want: "alpha..."},
		{in: "alpha beta gamma", max: 10, want: "alpha beta..."},
		{in: "alpha beta gamma", max: 11, want: "alpha beta..."},
		{in: "abcdefghijkl", max: 5, want: "abcde..."},
	}
	for _, tt := range tests {
		if got := truncateWords(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateWords(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
