package summarizer

import (
	"regexp"
	"strings"
	"unicode"

	"industry-mailer/internal/domain"
)

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// Local строит краткое содержание без внешних вызовов: первое предложение описания,
// иначе всё описание, иначе заголовок. Результат обрезается по границе слова.
func Local(article domain.Article, maxLength int) string {
	summary := strings.TrimSpace(article.Title)
	if desc := strings.TrimSpace(article.Description); desc != "" {
		summary = desc
		if loc := sentenceEnd.FindStringIndex(desc); loc != nil {
			summary = desc[:loc[0]+1]
		}
	}
	return truncateWords(summary, maxLength)
}

func truncateWords(s string, maxLength int) string {
	runes := []rune(s)
	if maxLength <= 0 || len(runes) <= maxLength {
		return s
	}
	cut := runes[:maxLength]
	if !unicode.IsSpace(runes[maxLength]) {
		if i := lastSpace(cut); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + "..."
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
